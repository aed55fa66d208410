// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/timebridge-foundation/timebridge/store"
)

func openTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.Open(store.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func testEntry(person string, hours float64) store.TimeEntry {
	return store.TimeEntry{
		Person:      person,
		Client:      "Acme Corp",
		Description: "code review",
		Start:       time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC),
		Hours:       hours,
		Billable:    true,
	}
}

func TestInsertAndFetchPending(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Insert(ctx, testEntry("Ada Lovelace", 1.5))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	second, err := s.Insert(ctx, testEntry("Grace Hopper", 2.0))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	entries, err := s.FetchPending(ctx)
	if err != nil {
		t.Fatalf("FetchPending: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].ID != first || entries[1].ID != second {
		t.Errorf("ids = [%d, %d], want [%d, %d]",
			entries[0].ID, entries[1].ID, first, second)
	}
	if entries[0].Person != "Ada Lovelace" {
		t.Errorf("Person = %q, want Ada Lovelace", entries[0].Person)
	}
	if entries[0].Hours != 1.5 {
		t.Errorf("Hours = %v, want 1.5", entries[0].Hours)
	}
	if !entries[0].Billable {
		t.Error("Billable = false, want true")
	}
}

func TestFetchPendingOrdersByStartTime(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	later := testEntry("Ada Lovelace", 1)
	later.Start = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	earlier := testEntry("Ada Lovelace", 1)
	earlier.Start = time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)

	laterID, err := s.Insert(ctx, later)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	earlierID, err := s.Insert(ctx, earlier)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	entries, err := s.FetchPending(ctx)
	if err != nil {
		t.Fatalf("FetchPending: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].ID != earlierID || entries[1].ID != laterID {
		t.Errorf("order = [%d, %d], want [%d, %d]",
			entries[0].ID, entries[1].ID, earlierID, laterID)
	}
}

func TestFetchPendingExcludesInvalidEntries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, testEntry("", 1.5)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(ctx, testEntry("Ada Lovelace", 0)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	valid, err := s.Insert(ctx, testEntry("Ada Lovelace", 0.25))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	entries, err := s.FetchPending(ctx)
	if err != nil {
		t.Fatalf("FetchPending: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1 (invalid entries silently excluded)", len(entries))
	}
	if entries[0].ID != valid {
		t.Errorf("id = %d, want %d", entries[0].ID, valid)
	}
}

func TestMarkSynced(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	keep, err := s.Insert(ctx, testEntry("Ada Lovelace", 1))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	done, err := s.Insert(ctx, testEntry("Grace Hopper", 2))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := s.MarkSynced(ctx, []int64{done}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	entries, err := s.FetchPending(ctx)
	if err != nil {
		t.Fatalf("FetchPending: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != keep {
		t.Fatalf("entries = %+v, want only id %d", entries, keep)
	}
}

func TestMarkSyncedIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, testEntry("Ada Lovelace", 1))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Marking twice, and marking an id that does not exist, are no-ops.
	if err := s.MarkSynced(ctx, []int64{id}); err != nil {
		t.Fatalf("first MarkSynced: %v", err)
	}
	if err := s.MarkSynced(ctx, []int64{id, 99999}); err != nil {
		t.Fatalf("second MarkSynced: %v", err)
	}
	if err := s.MarkSynced(ctx, nil); err != nil {
		t.Fatalf("empty MarkSynced: %v", err)
	}

	count, err := s.CountPending(ctx)
	if err != nil {
		t.Fatalf("CountPending: %v", err)
	}
	if count != 0 {
		t.Errorf("CountPending = %d, want 0", count)
	}
}
