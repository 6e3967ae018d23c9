package jamclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jamroom/jamroom/internal/audio"
)

// Shell evaluates interactive commands against a client and its local
// audio session.
type Shell struct {
	Client  *Client
	Session *audio.Session
	API     API
	Room    string
}

type command struct {
	name  string
	usage string
	run   func(context.Context, *Shell, []string) (string, error)
	arity int // -n means len(args) must be >= n
}

var commands []command

func init() {
	commands = []command{
		{"play", "play <instrument> <slot> [repeats]", playCommand, -2},
		{"gain", "gain <instrument> <0..1>", gainCommand, 2},
		{"pan", "pan <instrument> <-1..1>", panCommand, 2},
		{"toggle", "toggle <drum layer>", toggleCommand, 1},
		{"say", "say <message>", sayCommand, -1},
		{"history", "history", historyCommand, 0},
		{"help", "help", helpCommand, 0},
	}
}

// Eval runs one command line and returns its output.
func (s *Shell) Eval(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	name, args := fields[0], fields[1:]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		if cmd.arity < 0 {
			if len(args) < -cmd.arity {
				return "", fmt.Errorf("usage: %s", cmd.usage)
			}
		} else if len(args) != cmd.arity {
			return "", fmt.Errorf("usage: %s", cmd.usage)
		}
		out, err := cmd.run(ctx, s, args)
		if err != nil {
			return out, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return out, nil
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

// CommandNames lists the shell's commands, for completion.
func CommandNames() []string {
	names := make([]string, len(commands))
	for i, cmd := range commands {
		names[i] = cmd.name
	}
	return names
}

func playCommand(ctx context.Context, s *Shell, args []string) (string, error) {
	slot, err := strconv.Atoi(args[1])
	if err != nil {
		return "", fmt.Errorf("invalid slot %q", args[1])
	}
	repeats := 1
	if len(args) > 2 {
		if repeats, err = strconv.Atoi(args[2]); err != nil || repeats < 1 {
			return "", fmt.Errorf("invalid repeat count %q", args[2])
		}
	}
	return "", s.Client.Repeat(ctx, args[0], slot, repeats)
}

func gainCommand(_ context.Context, s *Shell, args []string) (string, error) {
	in, v, err := s.instrumentValue(args)
	if err != nil {
		return "", err
	}
	in.SetGain(v)
	return fmt.Sprintf("%s gain %.2f", in.Name(), in.Gain()), nil
}

func panCommand(_ context.Context, s *Shell, args []string) (string, error) {
	in, v, err := s.instrumentValue(args)
	if err != nil {
		return "", err
	}
	in.SetPan(v)
	return fmt.Sprintf("%s pan %.2f", in.Name(), in.Pan()), nil
}

func (s *Shell) instrumentValue(args []string) (*audio.Instrument, float64, error) {
	in, err := s.Session.Instrument(args[0])
	if err != nil {
		return nil, 0, err
	}
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid value %q", args[1])
	}
	return in, v, nil
}

func toggleCommand(_ context.Context, s *Shell, args []string) (string, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		var ok bool
		if id, ok = s.Session.Drums.LayerByName(args[0]); !ok {
			return "", fmt.Errorf("unknown drum layer %q", args[0])
		}
	}
	on, err := s.Session.Drums.ToggleLayer(id)
	if err != nil {
		return "", err
	}
	if on {
		return fmt.Sprintf("layer %d on", id), nil
	}
	return fmt.Sprintf("layer %d off", id), nil
}

func sayCommand(_ context.Context, s *Shell, args []string) (string, error) {
	return "", s.Client.Say(strings.Join(args, " "))
}

func historyCommand(ctx context.Context, s *Shell, _ []string) (string, error) {
	entries, err := s.API.ChatHistory(ctx, s.Room)
	if err != nil {
		return "", err
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Render()
	}
	return strings.Join(lines, "\n"), nil
}

func helpCommand(context.Context, *Shell, []string) (string, error) {
	usages := make([]string, len(commands))
	for i, cmd := range commands {
		usages[i] = cmd.usage
	}
	return strings.Join(usages, "\n"), nil
}
