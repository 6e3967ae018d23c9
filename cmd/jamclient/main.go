package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/jamroom/jamroom/internal/audio"
	"github.com/jamroom/jamroom/internal/jamclient"
	"github.com/jamroom/jamroom/internal/logging"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

type options struct {
	server    string
	room      string
	username  string
	create    bool
	silent    bool
	logLevel  string
	latency   time.Duration
	historyFn string
}

func parseFlags() (*options, error) {
	envFile, err := homedir.Expand("~/.jamroom.env")
	if err != nil {
		return nil, err
	}
	// Missing file is fine; flags and the environment still apply.
	_ = godotenv.Load(envFile)

	opts := &options{}
	pflag.StringVar(&opts.server, "server", envOr("JAMROOM_SERVER", "http://localhost:3000"), "jam room server URL")
	pflag.StringVar(&opts.room, "room", os.Getenv("JAMROOM_ROOM"), "room to join")
	pflag.StringVar(&opts.username, "user", os.Getenv("JAMROOM_USER"), "username")
	pflag.BoolVar(&opts.create, "create", false, "create the room with this user as owner")
	pflag.BoolVar(&opts.silent, "silent", false, "do not open an audio device")
	pflag.StringVar(&opts.logLevel, "log-level", envOr("JAMROOM_LOG_LEVEL", "warn"), "log level")
	pflag.DurationVar(&opts.latency, "latency", 50*time.Millisecond, "audio output buffer size")
	pflag.StringVar(&opts.historyFn, "history-file", "~/.jamroom_history", "readline history file")
	pflag.Parse()

	if opts.room == "" || opts.username == "" {
		return nil, errors.New("--room and --user are required")
	}
	if opts.historyFn, err = homedir.Expand(opts.historyFn); err != nil {
		return nil, err
	}
	return opts, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		pflag.Usage()
		os.Exit(2)
	}
	if err := logging.Setup(os.Stderr, opts.logLevel, "console"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(opts); err != nil && !errors.Is(err, io.EOF) {
		log.Fatal().Err(err).Msg("jamclient failed")
	}
}

func run(opts *options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := jamclient.API{BaseURL: strings.TrimSuffix(opts.server, "/")}
	if opts.create {
		if err := api.CreateRoom(ctx, opts.room, opts.username); err != nil {
			return fmt.Errorf("create room: %w", err)
		}
	} else if err := api.JoinRoom(ctx, opts.room, opts.username); err != nil {
		return fmt.Errorf("join room: %w", err)
	}

	manifest, err := api.Manifest(ctx)
	if err != nil {
		return fmt.Errorf("fetch manifest: %w", err)
	}
	session := audio.NewSession(manifest, audio.DefaultSampleRate, audio.WallClockOrigin(time.Now()))

	if opts.silent {
		go session.Mixer.Drive(ctx, opts.latency)
	} else {
		out, err := audio.OpenOtoOutput(session.Mixer, opts.latency)
		if err != nil {
			return err
		}
		defer out.Close()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          opts.room + "> ",
		HistoryFile:     opts.historyFn,
		AutoComplete:    completer(session),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	printLine := func(line string) { fmt.Fprintln(rl.Stdout(), line) }

	report := session.Load(ctx, api.Samples())
	if err := report.Err(); err != nil {
		printLine(fmt.Sprintf("samples %s: %v", report.Status(), err))
	}

	history, err := api.ChatHistory(ctx, opts.room)
	if err != nil {
		printLine("could not load chat history: " + err.Error())
	}
	for _, e := range history {
		printLine(e.Render())
	}

	client := jamclient.New(jamclient.Options{ServerURL: api.BaseURL, Room: opts.room, Username: opts.username}, session, printLine)
	go client.Run(ctx)

	shell := &jamclient.Shell{Client: client, Session: session, API: api, Room: opts.room}
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "quit" || line == "exit" {
			return nil
		}
		out, err := shell.Eval(ctx, line)
		if err != nil {
			printLine(err.Error())
			continue
		}
		if out != "" {
			printLine(out)
		}
	}
}

func completer(session *audio.Session) *readline.PrefixCompleter {
	instruments := make([]readline.PrefixCompleterInterface, 0)
	for _, name := range session.InstrumentNames() {
		instruments = append(instruments, readline.PcItem(name))
	}
	layers := make([]readline.PrefixCompleterInterface, 0)
	for _, l := range session.Drums.Layers() {
		layers = append(layers, readline.PcItem(l.Name))
	}

	items := make([]readline.PrefixCompleterInterface, 0)
	for _, name := range jamclient.CommandNames() {
		switch name {
		case "play", "gain", "pan":
			items = append(items, readline.PcItem(name, instruments...))
		case "toggle":
			items = append(items, readline.PcItem(name, layers...))
		default:
			items = append(items, readline.PcItem(name))
		}
	}
	items = append(items, readline.PcItem("quit"))
	return readline.NewPrefixCompleter(items...)
}
