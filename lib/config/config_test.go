// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/timebridge-foundation/timebridge/lib/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timebridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := config.Default()

	if cfg.ListenAddress != "127.0.0.1:8077" {
		t.Errorf("ListenAddress = %q, want 127.0.0.1:8077", cfg.ListenAddress)
	}
	if got := cfg.Session.IdleTimeoutDuration(); got != 30*time.Minute {
		t.Errorf("IdleTimeoutDuration = %v, want 30m", got)
	}
	if cfg.Export.DefaultClient != "(none)" {
		t.Errorf("DefaultClient = %q, want (none)", cfg.Export.DefaultClient)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
listen_address: 0.0.0.0:9000
public_url: https://books.example.com
auth:
  username: connector
  password: hunter2
database:
  path: /tmp/test.db
session:
  idle_timeout: 5m
qwc:
  app_name: Example Bridge
  run_every_minutes: 15
`)

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("ListenAddress = %q, want 0.0.0.0:9000", cfg.ListenAddress)
	}
	if cfg.Auth.Username != "connector" || cfg.Auth.Password != "hunter2" {
		t.Errorf("Auth = %+v, want connector/hunter2", cfg.Auth)
	}
	if got := cfg.Session.IdleTimeoutDuration(); got != 5*time.Minute {
		t.Errorf("IdleTimeoutDuration = %v, want 5m", got)
	}
	// Unset sections keep their defaults.
	if got := cfg.Session.SweepIntervalDuration(); got != time.Minute {
		t.Errorf("SweepIntervalDuration = %v, want 1m", got)
	}
	if cfg.QWC.RunEveryMinutes != 15 {
		t.Errorf("RunEveryMinutes = %d, want 15", cfg.QWC.RunEveryMinutes)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFileExpandsHome(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ${HOME}/timebridge/test.db
`)

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	home := os.Getenv("HOME")
	want := home + "/timebridge/test.db"
	if cfg.Database.Path != want {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, want)
	}
}

func TestValidateMissingCredentials(t *testing.T) {
	cfg := config.Default()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted a config without credentials")
	}
	if !strings.Contains(err.Error(), "auth.username") {
		t.Errorf("error %q does not mention auth.username", err)
	}
	if !strings.Contains(err.Error(), "auth.password") {
		t.Errorf("error %q does not mention auth.password", err)
	}
}

func TestValidateBadDuration(t *testing.T) {
	cfg := config.Default()
	cfg.Auth = config.AuthConfig{Username: "u", Password: "p"}
	cfg.Session.IdleTimeout = "not-a-duration"

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate accepted a malformed idle_timeout")
	}
}

func TestLoadRequiresEnvVar(t *testing.T) {
	t.Setenv("TIMEBRIDGE_CONFIG", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("Load succeeded without TIMEBRIDGE_CONFIG")
	}
}
