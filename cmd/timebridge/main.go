// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

// Timebridge serves pending time entries to the QuickBooks Web
// Connector over the QBWC SOAP protocol.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/timebridge-foundation/timebridge/lib/clock"
	"github.com/timebridge-foundation/timebridge/lib/config"
	"github.com/timebridge-foundation/timebridge/lib/version"
	"github.com/timebridge-foundation/timebridge/qbwc"
	"github.com/timebridge-foundation/timebridge/server"
	"github.com/timebridge-foundation/timebridge/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var listenOverride string
	var seed bool
	var showVersion bool

	pflag.StringVar(&configPath, "config", "", "path to config file (defaults to $TIMEBRIDGE_CONFIG)")
	pflag.StringVar(&listenOverride, "listen", "", "override the configured listen address")
	pflag.BoolVar(&seed, "seed", false, "insert demo time entries into the database and exit")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("timebridge %s\n", version.Info())
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if listenOverride != "" {
		cfg.ListenAddress = listenOverride
	}

	recordStore, err := store.Open(store.Config{
		Path:   cfg.Database.Path,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer recordStore.Close()

	if seed {
		return seedEntries(context.Background(), recordStore)
	}

	logger.Info("starting timebridge",
		"version", version.Info(),
		"database", cfg.Database.Path,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := qbwc.NewRegistry(clock.Real(), logger)
	go registry.RunSweep(ctx, cfg.Session.SweepIntervalDuration(), cfg.Session.IdleTimeoutDuration())

	dispatcher := qbwc.NewDispatcher(qbwc.Config{
		Registry:      registry,
		Store:         recordStore,
		Username:      cfg.Auth.Username,
		Password:      cfg.Auth.Password,
		DefaultClient: cfg.Export.DefaultClient,
		Version:       version.Short(),
		Logger:        logger,
	})

	srv, err := server.New(server.Config{
		ListenAddress: cfg.ListenAddress,
		Dispatcher:    dispatcher,
		App:           cfg,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	pending, err := recordStore.CountPending(ctx)
	if err == nil {
		logger.Info("ready for web connector polls",
			"address", srv.Addr(),
			"pending_entries", pending,
		)
	}

	<-ctx.Done()
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// seedEntries inserts a small batch of demo entries so a fresh install
// has something to sync on the first Web Connector run.
func seedEntries(ctx context.Context, recordStore *store.SQLite) error {
	now := time.Now().Truncate(time.Hour)
	demo := []store.TimeEntry{
		{
			Person:      "Ada Lovelace",
			Client:      "Acme Corp",
			Description: "Ledger import review",
			Project:     "Migration",
			Start:       now.Add(-26 * time.Hour),
			Hours:       2,
			Billable:    true,
		},
		{
			Person:      "Grace Hopper",
			Client:      "(none)",
			Description: "Team standup",
			Start:       now.Add(-25 * time.Hour),
			Hours:       0.5,
		},
		{
			Person:      "Ada Lovelace",
			Client:      "Acme Corp",
			Description: "Report drafting",
			Project:     "Migration",
			Tags:        "writing",
			Start:       now.Add(-3 * time.Hour),
			Hours:       1.5,
			Billable:    true,
		},
	}

	for _, entry := range demo {
		id, err := recordStore.Insert(ctx, entry)
		if err != nil {
			return fmt.Errorf("failed to insert demo entry: %w", err)
		}
		fmt.Printf("inserted entry %d: %s, %.2gh for %s\n", id, entry.Person, entry.Hours, entry.Client)
	}
	return nil
}
