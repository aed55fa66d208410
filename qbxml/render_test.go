// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package qbxml_test

import (
	"strings"
	"testing"
	"time"

	"github.com/timebridge-foundation/timebridge/qbxml"
	"github.com/timebridge-foundation/timebridge/store"
)

var opts = qbxml.RenderOptions{DefaultClient: "(none)"}

func baseEntry() store.TimeEntry {
	return store.TimeEntry{
		ID:       1,
		Person:   "Ada Lovelace",
		Client:   "Acme Corp",
		Start:    time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC),
		Hours:    1.5,
		Billable: true,
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{1.5, "PT1H30M"},
		{2.0, "PT2H"},
		{0.0833333333, "PT0H5M"},
		{0.25, "PT0H15M"},
		{1.0, "PT1H"},
		{7.99, "PT7H59M"},
		// 2.00834*60 = 120.5004 minutes rounds away from zero to 121.
		{2.00834, "PT2H1M"},
	}
	for _, test := range tests {
		if got := qbxml.Duration(test.hours); got != test.want {
			t.Errorf("Duration(%v) = %q, want %q", test.hours, got, test.want)
		}
	}
}

func TestRenderBillableEntry(t *testing.T) {
	doc := qbxml.RenderTimeTrackingAdd(baseEntry(), opts)

	for _, want := range []string{
		`<?qbxml version="13.0"?>`,
		`<QBXMLMsgsRq onError="stopOnError">`,
		"<TxnDate>2026-03-09</TxnDate>",
		"<EntityRef><FullName>Ada Lovelace</FullName></EntityRef>",
		"<CustomerRef><FullName>Acme Corp</FullName></CustomerRef>",
		"<Duration>PT1H30M</Duration>",
		"<BillableStatus>Billable</BillableStatus>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestRenderDateDropsTimeOfDay(t *testing.T) {
	entry := baseEntry()
	entry.Start = time.Date(2026, 3, 9, 23, 59, 59, 0, time.UTC)

	doc := qbxml.RenderTimeTrackingAdd(entry, opts)
	if !strings.Contains(doc, "<TxnDate>2026-03-09</TxnDate>") {
		t.Errorf("TxnDate should carry the calendar date only:\n%s", doc)
	}
}

func TestRenderDefaultClientIsNotBillable(t *testing.T) {
	// A placeholder billing target makes the entry not billable even
	// with the billable flag set, and the CustomerRef is omitted.
	for _, client := range []string{"(none)", ""} {
		entry := baseEntry()
		entry.Client = client
		entry.Billable = true

		doc := qbxml.RenderTimeTrackingAdd(entry, opts)
		if !strings.Contains(doc, "<BillableStatus>NotBillable</BillableStatus>") {
			t.Errorf("client %q: want NotBillable:\n%s", client, doc)
		}
		if strings.Contains(doc, "<CustomerRef>") {
			t.Errorf("client %q: CustomerRef should be omitted:\n%s", client, doc)
		}
	}
}

func TestRenderUnbillableFlagWinsOverRealClient(t *testing.T) {
	entry := baseEntry()
	entry.Billable = false

	doc := qbxml.RenderTimeTrackingAdd(entry, opts)
	if !strings.Contains(doc, "<BillableStatus>NotBillable</BillableStatus>") {
		t.Errorf("want NotBillable when the billable flag is unset:\n%s", doc)
	}
}

func TestRenderWholeHourOmitsMinutes(t *testing.T) {
	entry := baseEntry()
	entry.Hours = 2.0

	doc := qbxml.RenderTimeTrackingAdd(entry, opts)
	if !strings.Contains(doc, "<Duration>PT2H</Duration>") {
		t.Errorf("want structural PT2H with no minutes component:\n%s", doc)
	}
}

func TestRenderNotes(t *testing.T) {
	entry := baseEntry()
	entry.Description = "code review"
	entry.Project = "backend"
	entry.Tags = "urgent"

	doc := qbxml.RenderTimeTrackingAdd(entry, opts)
	if !strings.Contains(doc, "<Notes>code review | backend | urgent</Notes>") {
		t.Errorf("notes not joined as expected:\n%s", doc)
	}
}

func TestRenderNotesSkipsEmptySubfields(t *testing.T) {
	entry := baseEntry()
	entry.Project = "backend"

	doc := qbxml.RenderTimeTrackingAdd(entry, opts)
	if !strings.Contains(doc, "<Notes>backend</Notes>") {
		t.Errorf("single sub-field should render without separators:\n%s", doc)
	}
}

func TestRenderNotesOmittedWhenEmpty(t *testing.T) {
	doc := qbxml.RenderTimeTrackingAdd(baseEntry(), opts)
	if strings.Contains(doc, "<Notes>") {
		t.Errorf("Notes element should be omitted entirely when empty:\n%s", doc)
	}
}

func TestRenderEscapesUserText(t *testing.T) {
	entry := baseEntry()
	entry.Person = `O'Brien <& Sons>`
	entry.Description = `said "hello"`

	doc := qbxml.RenderTimeTrackingAdd(entry, opts)
	if !strings.Contains(doc, "<FullName>O&apos;Brien &lt;&amp; Sons&gt;</FullName>") {
		t.Errorf("person not escaped:\n%s", doc)
	}
	if !strings.Contains(doc, "<Notes>said &quot;hello&quot;</Notes>") {
		t.Errorf("notes not escaped:\n%s", doc)
	}
	if strings.Contains(doc, "<& Sons>") {
		t.Errorf("raw metacharacters leaked into document:\n%s", doc)
	}
}

func TestRenderDeterministic(t *testing.T) {
	first := qbxml.RenderTimeTrackingAdd(baseEntry(), opts)
	second := qbxml.RenderTimeTrackingAdd(baseEntry(), opts)
	if first != second {
		t.Error("rendering the same entry twice produced different documents")
	}
}
