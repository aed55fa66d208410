// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package store

import "time"

// TimeEntry is one unit of work: a completed time entry waiting to be
// exported into QuickBooks as a TimeTrackingAdd transaction.
type TimeEntry struct {
	// ID is the store-assigned identifier.
	ID int64

	// Person is the worker's name. It must exactly match an employee
	// (or vendor) FullName in the QuickBooks company file — a mismatch
	// is rejected by QuickBooks at apply time, not by the bridge.
	Person string

	// Client is the billing target's FullName in QuickBooks. The
	// configured placeholder value (or an empty string) means no
	// client is assigned.
	Client string

	// Description, Project, and Tags are free-text annotations. The
	// renderer joins the non-empty ones into the document's Notes
	// field.
	Description string
	Project     string
	Tags        string

	// Start is when the tracked time began. Only the calendar date
	// reaches QuickBooks.
	Start time.Time

	// Hours is the tracked duration in decimal hours.
	Hours float64

	// Billable marks the entry as intended for client billing. The
	// rendered document is billable only when this is set and Client
	// names a real billing target.
	Billable bool

	// Synced is the store-level marker flipped by MarkSynced. Entries
	// with Synced set are never offered to a sync session again.
	Synced bool
}
