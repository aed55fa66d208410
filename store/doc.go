// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists time entries awaiting export to QuickBooks.
//
// The bridge never creates entries during a sync — they arrive from
// whatever feeds the database (an importer, a manual insert, the
// --seed developer flag) and carry a ready flag set by that producer.
// The sync cycle reads them with FetchPending and flips the synced
// marker with MarkSynced once the Web Connector confirms QuickBooks
// accepted the corresponding document.
//
// An entry that QuickBooks rejects keeps synced = 0, so the next sync
// session's FetchPending offers it again. The store never deletes
// entries.
//
// [SQLite] is the production implementation, backed by a
// zombiezen.com/go/sqlite connection pool in WAL mode. The schema is
// created on first connect.
package store
