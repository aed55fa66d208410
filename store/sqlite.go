// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS time_entries (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	person      TEXT NOT NULL DEFAULT '',
	client      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	project     TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '',
	start_at    TEXT NOT NULL,
	hours       REAL NOT NULL DEFAULT 0,
	billable    INTEGER NOT NULL DEFAULT 0,
	ready       INTEGER NOT NULL DEFAULT 1,
	synced      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS time_entries_pending
	ON time_entries (synced, ready, start_at);
`

// Config holds the parameters for opening the SQLite store.
type Config struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist; the file is created if absent.
	Path string

	// PoolSize is the number of connections in the pool. If zero or
	// negative, defaults to max(runtime.NumCPU(), 4). SQLite
	// serializes writes regardless, so extra connections only help
	// concurrent reads.
	PoolSize int

	// Logger receives operational messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// SQLite is the production time-entry store. It owns a fixed-size
// connection pool with WAL-mode pragmas applied to every connection.
//
// SQLite is safe for concurrent use.
type SQLite struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// Open creates the connection pool and ensures the schema exists. The
// caller must call Close when the store is no longer needed.
func Open(cfg Config) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
		if poolSize < 4 {
			poolSize = 4
		}
	}
	// Each in-memory connection is an independent database, so the
	// pool must collapse to a single connection to be coherent.
	if cfg.Path == ":memory:" {
		poolSize = 1
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", cfg.Path, err)
	}

	logger.Info("time-entry store opened", "path", cfg.Path, "pool_size", poolSize)

	return &SQLite{
		pool:   pool,
		logger: logger,
		path:   cfg.Path,
	}, nil
}

// prepareConnection applies standard pragmas and the schema. Runs once
// per connection in the pool, on first use.
func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("store: creating schema: %w", err)
	}
	return nil
}

// Close closes all connections in the pool. Blocks until all borrowed
// connections are returned.
func (s *SQLite) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("store: closing %s: %w", s.path, err)
	}
	return nil
}

// FetchPending returns entries that are ready for export and not yet
// marked synced, ordered by start time. Entries missing a person name
// or a positive duration cannot become valid QuickBooks transactions;
// they are skipped with a warning rather than failing the batch.
func (s *SQLite) FetchPending(ctx context.Context) ([]TimeEntry, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: take: %w", err)
	}
	defer s.pool.Put(conn)

	var entries []TimeEntry
	err = sqlitex.Execute(conn, `
		SELECT id, person, client, description, project, tags, start_at, hours, billable
		FROM time_entries
		WHERE ready = 1 AND synced = 0
		ORDER BY start_at, id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entry := TimeEntry{
					ID:          stmt.ColumnInt64(0),
					Person:      stmt.ColumnText(1),
					Client:      stmt.ColumnText(2),
					Description: stmt.ColumnText(3),
					Project:     stmt.ColumnText(4),
					Tags:        stmt.ColumnText(5),
					Hours:       stmt.ColumnFloat(7),
					Billable:    stmt.ColumnInt(8) != 0,
				}

				start, err := time.Parse(time.RFC3339, stmt.ColumnText(6))
				if err != nil {
					s.logger.Warn("skipping entry with unparseable start time",
						"id", entry.ID,
						"start_at", stmt.ColumnText(6),
					)
					return nil
				}
				entry.Start = start

				if entry.Person == "" || entry.Hours <= 0 {
					s.logger.Warn("skipping entry missing mandatory fields",
						"id", entry.ID,
						"person", entry.Person,
						"hours", entry.Hours,
					)
					return nil
				}

				entries = append(entries, entry)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: fetching pending entries: %w", err)
	}

	return entries, nil
}

// MarkSynced flips the synced marker for the given entries. Idempotent:
// already-synced or unknown ids are no-ops, not errors.
func (s *SQLite) MarkSynced(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: take: %w", err)
	}
	defer s.pool.Put(conn)

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	err = sqlitex.Execute(conn,
		"UPDATE time_entries SET synced = 1 WHERE id IN ("+placeholders+")",
		&sqlitex.ExecOptions{Args: args})
	if err != nil {
		return fmt.Errorf("store: marking %d entries synced: %w", len(ids), err)
	}
	return nil
}

// Insert adds a time entry and returns its assigned id. Used by tests
// and the --seed developer flag; production entries arrive from
// whatever feeds the database.
func (s *SQLite) Insert(ctx context.Context, entry TimeEntry) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: take: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `
		INSERT INTO time_entries (person, client, description, project, tags, start_at, hours, billable, ready, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				entry.Person,
				entry.Client,
				entry.Description,
				entry.Project,
				entry.Tags,
				entry.Start.UTC().Format(time.RFC3339),
				entry.Hours,
				boolToInt(entry.Billable),
				boolToInt(entry.Synced),
			},
		})
	if err != nil {
		return 0, fmt.Errorf("store: inserting entry: %w", err)
	}

	return conn.LastInsertRowID(), nil
}

// CountPending returns the number of entries FetchPending would
// consider (before field validation).
func (s *SQLite) CountPending(ctx context.Context) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: take: %w", err)
	}
	defer s.pool.Put(conn)

	var count int
	err = sqlitex.Execute(conn,
		"SELECT COUNT(*) FROM time_entries WHERE ready = 1 AND synced = 0",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt(0)
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("store: counting pending entries: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
