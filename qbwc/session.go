// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package qbwc

import (
	"sync"
	"time"

	"github.com/timebridge-foundation/timebridge/store"
)

// State is a session's position in the polling lifecycle. The closed
// state has no value: a closed session is removed from the registry.
type State int

const (
	// StateAuthenticated means the credential check passed but no work
	// request has arrived yet. The worklist has not been fetched.
	StateAuthenticated State = iota

	// StateFetching means the first sendRequestXML is fetching the
	// worklist from the store. Modeled as an explicit state (rather
	// than inferring from an empty slice) so the fetch-exactly-once
	// invariant is directly observable.
	StateFetching

	// StateStreaming means the worklist is fixed and the cursor has
	// not reached its end.
	StateStreaming

	// StateDrained means every entry has been confirmed (pass or
	// fail). sendRequestXML returns the empty no-more-work response.
	StateDrained
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateFetching:
		return "fetching"
	case StateStreaming:
		return "streaming"
	case StateDrained:
		return "drained"
	}
	return "unknown"
}

// Session is one authenticated polling conversation with the Web
// Connector. All mutation happens through dispatcher methods holding
// mu; the exported accessors exist for tests and logging.
type Session struct {
	ticket string

	mu        sync.Mutex
	state     State
	entries   []store.TimeEntry
	cursor    int
	lastError string
	lastSeen  time.Time
}

// Ticket returns the session's opaque identifier.
func (s *Session) Ticket() string { return s.ticket }

// State returns the session's lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cursor returns the index of the next entry to confirm.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// LastError returns the most recent error recorded on the session, or
// the empty string.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// LastSeen returns the time of the session's most recent call.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// touch records call activity for the idle sweep.
func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// progressLocked computes percent complete. Defined as 0 for an empty
// worklist. Callers hold s.mu.
func (s *Session) progressLocked() int {
	if len(s.entries) == 0 {
		return 0
	}
	return 100 * s.cursor / len(s.entries)
}
