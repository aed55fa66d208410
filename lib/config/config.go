// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the bridge.
//
// Configuration is loaded from a single YAML file specified by:
//   - TIMEBRIDGE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides. The
// only expansion performed is ${HOME} and similar path variables for
// portability.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the bridge.
type Config struct {
	// ListenAddress is the TCP address the HTTP server binds to.
	ListenAddress string `yaml:"listen_address"`

	// PublicURL is the externally reachable base URL written into the
	// generated QWC file (the Web Connector dials this, not the bind
	// address). No trailing slash.
	PublicURL string `yaml:"public_url"`

	// Auth holds the shared-secret credential pair the Web Connector
	// presents on authenticate.
	Auth AuthConfig `yaml:"auth"`

	// Database configures the SQLite time-entry store.
	Database DatabaseConfig `yaml:"database"`

	// Session configures polling-session lifecycle.
	Session SessionConfig `yaml:"session"`

	// Export configures QBXML document rendering.
	Export ExportConfig `yaml:"export"`

	// QWC configures the generated Web Connector configuration file.
	QWC QWCConfig `yaml:"qwc"`
}

// AuthConfig is the single credential pair checked on authenticate.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist.
	Path string `yaml:"path"`
}

// SessionConfig configures polling-session lifecycle.
type SessionConfig struct {
	// IdleTimeout is how long a session may sit without a call from
	// the Web Connector before the registry sweep destroys it. The
	// protocol has no goodbye guarantee (a client that crashes never
	// calls closeConnection), so abandoned sessions must be reaped.
	// Duration string, e.g. "30m".
	IdleTimeout string `yaml:"idle_timeout"`

	// SweepInterval is how often the registry checks for idle
	// sessions. Duration string, e.g. "1m".
	SweepInterval string `yaml:"sweep_interval"`
}

// IdleTimeoutDuration parses IdleTimeout. Call Validate first; this
// falls back to the default on a malformed value.
func (s SessionConfig) IdleTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.IdleTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// SweepIntervalDuration parses SweepInterval. Call Validate first;
// this falls back to the default on a malformed value.
func (s SessionConfig) SweepIntervalDuration() time.Duration {
	d, err := time.ParseDuration(s.SweepInterval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// ExportConfig configures QBXML document rendering.
type ExportConfig struct {
	// DefaultClient is the placeholder billing-target name that means
	// "no client assigned". Entries whose client matches it render as
	// not billable regardless of their billable flag.
	DefaultClient string `yaml:"default_client"`
}

// QWCConfig configures the generated .qwc file served to bookkeepers.
type QWCConfig struct {
	// AppName is shown in the Web Connector's application list.
	AppName string `yaml:"app_name"`

	// Description is shown under the application name.
	Description string `yaml:"description"`

	// OwnerID and FileID are braced GUIDs identifying the application
	// to QuickBooks. Generate fresh ones per deployment.
	OwnerID string `yaml:"owner_id"`
	FileID  string `yaml:"file_id"`

	// RunEveryMinutes enables the Web Connector's autorun scheduler
	// when positive. Zero disables scheduling (manual runs only).
	RunEveryMinutes int `yaml:"run_every_minutes"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file. Auth has no default — the
// credential pair must come from the file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		ListenAddress: "127.0.0.1:8077",
		PublicURL:     "http://localhost:8077",
		Database: DatabaseConfig{
			Path: filepath.Join(homeDir, ".local", "share", "timebridge", "timebridge.db"),
		},
		Session: SessionConfig{
			IdleTimeout:   "30m",
			SweepInterval: "1m",
		},
		Export: ExportConfig{
			DefaultClient: "(none)",
		},
		QWC: QWCConfig{
			AppName:         "Timebridge",
			Description:     "Syncs pending time entries into QuickBooks",
			OwnerID:         "{57f3b9b6-86f1-4fcc-b1ff-967de1813d20}",
			FileID:          "{90a44fb7-33d9-4815-ac85-ac86a7e69609}",
			RunEveryMinutes: 0,
		},
	}
}

// Load loads configuration from the TIMEBRIDGE_CONFIG environment
// variable. There are no fallbacks — if TIMEBRIDGE_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("TIMEBRIDGE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("TIMEBRIDGE_CONFIG environment variable not set; " +
			"set it to the path of your timebridge.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables do not
// override config values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Database.Path = expandVars(c.Database.Path, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.ListenAddress == "" {
		errs = append(errs, fmt.Errorf("listen_address is required"))
	}
	if c.PublicURL == "" {
		errs = append(errs, fmt.Errorf("public_url is required"))
	}
	if c.Auth.Username == "" {
		errs = append(errs, fmt.Errorf("auth.username is required"))
	}
	if c.Auth.Password == "" {
		errs = append(errs, fmt.Errorf("auth.password is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}
	if _, err := time.ParseDuration(c.Session.IdleTimeout); err != nil {
		errs = append(errs, fmt.Errorf("session.idle_timeout: %w", err))
	}
	if _, err := time.ParseDuration(c.Session.SweepInterval); err != nil {
		errs = append(errs, fmt.Errorf("session.sweep_interval: %w", err))
	}
	if c.QWC.AppName == "" {
		errs = append(errs, fmt.Errorf("qwc.app_name is required"))
	}
	if c.QWC.RunEveryMinutes < 0 {
		errs = append(errs, fmt.Errorf("qwc.run_every_minutes must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
