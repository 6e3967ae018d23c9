// Package config loads server settings from a .env file, the
// environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds the server settings.
type Config struct {
	Addr           string   // Listen address for HTTP and websockets
	Store          string   // "memory" or "valkey"
	ValkeyAddr     string   // host:port of the Valkey server
	ValkeyPassword string   // Optional Valkey password
	ValkeyDB       int      // Valkey database index
	AssetsDir      string   // Directory holding manifest.yaml and sample files
	AllowedOrigin  string   // CORS and websocket origin; "*" allows any
	LogLevel       string   // zerolog level name
	LogFormat      string   // "json" or "console"
	RequireRoom    bool     // Reject websocket joins to rooms that were never created
	Users          []string // Usernames seeded into the user directory
}

// Load reads envFile (a missing file is not an error), then the
// environment, then parses args as flags.
func Load(envFile string, args []string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Addr:          getenv("JAMROOM_ADDR", ":3000"),
		Store:         getenv("JAMROOM_STORE", "memory"),
		ValkeyAddr:    getenv("JAMROOM_VALKEY_ADDR", "127.0.0.1:6379"),
		AssetsDir:     getenv("JAMROOM_ASSETS_DIR", "assets"),
		AllowedOrigin: getenv("JAMROOM_ALLOWED_ORIGIN", "*"),
		LogLevel:      getenv("JAMROOM_LOG_LEVEL", "info"),
		LogFormat:     getenv("JAMROOM_LOG_FORMAT", "console"),
	}
	cfg.ValkeyPassword = os.Getenv("JAMROOM_VALKEY_PASSWORD")

	var err error
	if cfg.ValkeyDB, err = strconv.Atoi(getenv("JAMROOM_VALKEY_DB", "0")); err != nil {
		return nil, fmt.Errorf("JAMROOM_VALKEY_DB: %w", err)
	}
	if cfg.RequireRoom, err = strconv.ParseBool(getenv("JAMROOM_REQUIRE_ROOM", "true")); err != nil {
		return nil, fmt.Errorf("JAMROOM_REQUIRE_ROOM: %w", err)
	}
	cfg.Users = splitList(os.Getenv("JAMROOM_USERS"))

	flags := pflag.NewFlagSet("jamroom", pflag.ContinueOnError)
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flags.StringVar(&cfg.Store, "store", cfg.Store, "persistence backend: memory or valkey")
	flags.StringVar(&cfg.ValkeyAddr, "valkey-addr", cfg.ValkeyAddr, "valkey server address")
	flags.IntVar(&cfg.ValkeyDB, "valkey-db", cfg.ValkeyDB, "valkey database index")
	flags.StringVar(&cfg.AssetsDir, "assets", cfg.AssetsDir, "directory with manifest.yaml and samples")
	flags.StringVar(&cfg.AllowedOrigin, "allowed-origin", cfg.AllowedOrigin, "allowed CORS/websocket origin")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: json or console")
	flags.BoolVar(&cfg.RequireRoom, "require-room", cfg.RequireRoom, "only allow websocket joins to existing rooms")
	flags.StringSliceVar(&cfg.Users, "users", cfg.Users, "usernames to seed into the user directory")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case "memory", "valkey":
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Addr == "" {
		return errors.New("listen address is empty")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
