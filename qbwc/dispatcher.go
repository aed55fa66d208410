// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package qbwc

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/timebridge-foundation/timebridge/qbxml"
	"github.com/timebridge-foundation/timebridge/store"
)

// RecordStore is the dispatcher's view of the time-entry store.
type RecordStore interface {
	// FetchPending returns the entries ready for export, in the order
	// they should be offered to the Web Connector.
	FetchPending(ctx context.Context) ([]store.TimeEntry, error)

	// MarkSynced flips the synced marker for the given entries.
	// Idempotent.
	MarkSynced(ctx context.Context, ids []int64) error
}

// AuthFailure is the authenticate second-field value the Web Connector
// interprets as "not valid user".
const AuthFailure = "nvu"

// Config holds the dispatcher's collaborators and policy.
type Config struct {
	Registry *Registry
	Store    RecordStore

	// Username and Password are the shared-secret pair the Web
	// Connector presents.
	Username string
	Password string

	// DefaultClient is the placeholder billing-target name passed
	// through to the renderer.
	DefaultClient string

	// Version is the string reported to serverVersion.
	Version string

	// Logger receives per-call protocol logs. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// Dispatcher implements the eight QBWC procedures against the session
// registry and the record store. One method per procedure; the
// transport layer decodes SOAP envelopes into calls and encodes the
// returns.
type Dispatcher struct {
	registry *Registry
	store    RecordStore
	username string
	password string
	render   qbxml.RenderOptions
	version  string
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		registry: cfg.Registry,
		store:    cfg.Store,
		username: cfg.Username,
		password: cfg.Password,
		render:   qbxml.RenderOptions{DefaultClient: cfg.DefaultClient},
		version:  cfg.Version,
		logger:   logger,
	}
}

// ServerVersion reports the bridge version to the Web Connector.
func (d *Dispatcher) ServerVersion() string {
	return d.version
}

// ClientVersion is the version gate for the Web Connector itself. The
// empty return accepts any client version; returning "W:..." or
// "E:..." would warn or reject.
func (d *Dispatcher) ClientVersion(clientVersion string) string {
	d.logger.Debug("client version", "version", clientVersion)
	return ""
}

// Authenticate checks the credential pair. On success it issues a
// ticket and an empty second field, which tells the Web Connector work
// is available — always, even if the worklist turns out empty, since
// the first sendRequestXML's empty response terminates the run
// cleanly. On failure it returns no ticket and "nvu", and no session
// is created.
func (d *Dispatcher) Authenticate(username, password string) [2]string {
	if username != d.username || password != d.password {
		d.logger.Warn("authentication failed", "username", username)
		return [2]string{"", AuthFailure}
	}

	session := d.registry.Create()
	d.logger.Info("session opened", "ticket", session.Ticket())
	return [2]string{session.Ticket(), ""}
}

// SendRequestXML returns the QBXML document for the entry at the
// session's cursor, or the empty string when there is no session, no
// work left, or the worklist cannot be fetched (fail-soft: the Web
// Connector sees "no work" rather than a transport fault).
//
// The worklist is fetched from the store on the first work request and
// fixed for the session's lifetime; entries arriving mid-session wait
// for the next run. The cursor does not advance here — only
// ReceiveResponseXML confirms an entry as done.
func (d *Dispatcher) SendRequestXML(ctx context.Context, ticket string) string {
	session, ok := d.registry.Get(ticket)
	if !ok {
		d.logger.Warn("sendRequestXML with unknown ticket", "ticket", ticket)
		return ""
	}
	session.touch(d.registry.clock.Now())

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state == StateAuthenticated {
		session.state = StateFetching
		entries, err := d.store.FetchPending(ctx)
		if err != nil {
			// Leave the session in the pre-fetch state so a retry on
			// the next poll cycle is possible, and surface the error
			// through getLastError instead of failing the call.
			session.state = StateAuthenticated
			session.lastError = fmt.Sprintf("fetching pending entries: %v", err)
			d.logger.Error("worklist fetch failed", "ticket", ticket, "error", err)
			return ""
		}
		session.entries = entries
		if len(entries) == 0 {
			session.state = StateDrained
		} else {
			session.state = StateStreaming
		}
		d.logger.Info("worklist fetched", "ticket", ticket, "entries", len(entries))
	}

	if session.cursor >= len(session.entries) {
		session.state = StateDrained
		return ""
	}

	return qbxml.RenderTimeTrackingAdd(session.entries[session.cursor], d.render)
}

// ReceiveResponseXML records the outcome of the entry most recently
// rendered by SendRequestXML and advances the cursor. Returns percent
// complete (0-100), or -1 for an unknown ticket, an unparseable
// response, or a client-side error report.
//
// A failed entry does not halt the batch: it is skipped, surfaced via
// getLastError, and left unsynced in the store. The cursor advances
// even on parse failure so a malformed response cannot wedge the
// session.
func (d *Dispatcher) ReceiveResponseXML(ctx context.Context, ticket, response, hresult, message string) int {
	session, ok := d.registry.Get(ticket)
	if !ok {
		d.logger.Warn("receiveResponseXML with unknown ticket", "ticket", ticket)
		return -1
	}
	session.touch(d.registry.clock.Now())

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.cursor >= len(session.entries) {
		return session.progressLocked()
	}
	current := session.entries[session.cursor]

	// The Web Connector reports client-side failures (QuickBooks
	// unreachable, company file locked) through hresult/message with
	// no response document.
	if hresult != "" || (response == "" && message != "") {
		session.lastError = fmt.Sprintf("web connector error %s: %s", hresult, message)
		session.advanceLocked()
		d.logger.Warn("entry failed on client side",
			"ticket", ticket,
			"entry", current.ID,
			"hresult", hresult,
			"message", message,
		)
		return -1
	}

	status, err := qbxml.ParseTimeTrackingResponse(response)
	if err != nil {
		session.lastError = fmt.Sprintf("parsing response for entry %d: %v", current.ID, err)
		session.advanceLocked()
		d.logger.Error("unparseable response document",
			"ticket", ticket,
			"entry", current.ID,
			"error", err,
		)
		return -1
	}

	if status.OK() {
		if err := d.store.MarkSynced(ctx, []int64{current.ID}); err != nil {
			// The entry was applied in QuickBooks but the store could
			// not record it; it will be offered again next run and
			// duplicate there. Surface loudly.
			session.lastError = fmt.Sprintf("marking entry %d synced: %v", current.ID, err)
			d.logger.Error("mark synced failed", "ticket", ticket, "entry", current.ID, "error", err)
		} else {
			d.logger.Info("entry synced", "ticket", ticket, "entry", current.ID)
		}
	} else {
		session.lastError = status.String()
		d.logger.Warn("entry rejected by QuickBooks",
			"ticket", ticket,
			"entry", current.ID,
			"status_code", status.Code,
			"status_message", status.Message,
		)
	}

	session.advanceLocked()
	return session.progressLocked()
}

// ConnectionError records a transport-level error reported by the Web
// Connector. The session is kept: the Web Connector may retry
// sendRequestXML with the same ticket. Returns the literal "done" to
// decline a connection retry within this run.
func (d *Dispatcher) ConnectionError(ticket, hresult, message string) string {
	if session, ok := d.registry.Get(ticket); ok {
		session.touch(d.registry.clock.Now())
		session.mu.Lock()
		session.lastError = fmt.Sprintf("connection error %s: %s", hresult, message)
		session.mu.Unlock()
	}
	d.logger.Warn("connection error reported", "ticket", ticket, "hresult", hresult, "message", message)
	return "done"
}

// GetLastError returns the session's last recorded error, or the empty
// string when there is none or the ticket is unknown.
func (d *Dispatcher) GetLastError(ticket string) string {
	session, ok := d.registry.Get(ticket)
	if !ok {
		return ""
	}
	session.touch(d.registry.clock.Now())
	return session.LastError()
}

// CloseConnection destroys the session. Returns the literal "OK",
// which the Web Connector shows in its run log.
func (d *Dispatcher) CloseConnection(ticket string) string {
	d.registry.Destroy(ticket)
	d.logger.Info("session closed", "ticket", ticket)
	return "OK"
}

// advanceLocked increments the cursor and updates the state when the
// worklist is exhausted. Callers hold session.mu.
func (s *Session) advanceLocked() {
	s.cursor++
	if s.cursor >= len(s.entries) {
		s.state = StateDrained
	}
}
