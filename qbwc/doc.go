// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package qbwc implements the QuickBooks Web Connector session state
// machine.
//
// The Web Connector is a pull-based client: it polls the bridge with a
// fixed sequence of SOAP procedures and carries no connection state
// between calls. Everything the bridge needs to remember across calls
// lives in a [Session], keyed by the opaque ticket issued at
// authenticate time:
//
//	authenticate          -> ticket issued, session created
//	sendRequestXML        -> fetch worklist (first call only), render
//	                         the entry at the cursor
//	receiveResponseXML    -> confirm the outcome, advance the cursor
//	... repeat until sendRequestXML returns "" ...
//	closeConnection       -> session destroyed
//
// The cursor advances only on receiveResponseXML, never on
// sendRequestXML — the entry the Web Connector is holding is not done
// until QuickBooks has reported pass or fail for it. A failed entry is
// skipped, surfaced through getLastError, and left unsynced in the
// store so a later session picks it up again.
//
// Sessions are in-memory only. The Web Connector re-authenticates on
// every run, so nothing survives a bridge restart by design. Clients
// that vanish without closeConnection are reaped by the registry's
// idle sweep.
package qbwc
