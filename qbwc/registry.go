// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package qbwc

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timebridge-foundation/timebridge/lib/clock"
)

// Registry owns session lifecycle: ticket issuance, lookup, teardown,
// and the idle sweep that reaps sessions whose client vanished without
// calling closeConnection.
//
// Registry is safe for concurrent use. The registry lock guards only
// the ticket map; per-session mutable state is guarded by the
// session's own mutex. Nothing acquires the registry lock while
// holding a session lock.
type Registry struct {
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. If logger is nil, a no-op
// logger is used.
func NewRegistry(clk clock.Clock, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		clock:    clk,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create issues a fresh ticket and stores a new authenticated session
// with empty state. Tickets are UUIDs: globally unique, no collision
// with any live ticket.
func (r *Registry) Create() *Session {
	session := &Session{
		ticket:   uuid.NewString(),
		state:    StateAuthenticated,
		lastSeen: r.clock.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ticket] = session
	return session
}

// Get looks up a live session by ticket. No side effects.
func (r *Registry) Get(ticket string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[ticket]
	return session, ok
}

// Destroy removes the session. Idempotent: destroying an absent ticket
// is a no-op.
func (r *Registry) Destroy(ticket string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, ticket)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ExpireIdle destroys sessions whose last call is older than timeout
// and returns how many were removed.
func (r *Registry) ExpireIdle(timeout time.Duration) int {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for ticket, session := range r.sessions {
		idle := now.Sub(session.LastSeen())
		if idle > timeout {
			delete(r.sessions, ticket)
			removed++
			r.logger.Info("expired idle session",
				"ticket", ticket,
				"idle", idle,
				"state", session.State().String(),
			)
		}
	}
	return removed
}

// RunSweep expires idle sessions on every tick until ctx is cancelled.
// Run this in its own goroutine.
func (r *Registry) RunSweep(ctx context.Context, interval, timeout time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ExpireIdle(timeout)
		}
	}
}
