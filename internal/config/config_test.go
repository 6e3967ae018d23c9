package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	os.WriteFile(envFile, []byte("JAMROOM_ADDR=:4000\nJAMROOM_USERS=alice, bob\n"), 0o600)

	t.Setenv("JAMROOM_STORE", "valkey")
	t.Setenv("JAMROOM_ADDR", "")
	os.Unsetenv("JAMROOM_ADDR")
	os.Unsetenv("JAMROOM_USERS")
	t.Cleanup(func() { os.Unsetenv("JAMROOM_USERS") })

	cfg, err := Load(envFile, []string{"--log-level=debug"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":4000" {
		t.Errorf("Addr = %q, want value from .env", cfg.Addr)
	}
	if cfg.Store != "valkey" {
		t.Errorf("Store = %q, want value from environment", cfg.Store)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want value from flag", cfg.LogLevel)
	}
	if len(cfg.Users) != 2 || cfg.Users[0] != "alice" || cfg.Users[1] != "bob" {
		t.Errorf("Users = %v", cfg.Users)
	}
	if !cfg.RequireRoom {
		t.Error("RequireRoom should default to true")
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env"), nil); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	if _, err := Load("", []string{"--store=postgres"}); err == nil {
		t.Error("expected error for unknown store")
	}
}
