// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package qbxml

import (
	"fmt"
	"math"
	"strings"

	"github.com/timebridge-foundation/timebridge/store"
)

// RenderOptions controls rendering policy that is configuration, not
// entry data.
type RenderOptions struct {
	// DefaultClient is the placeholder billing-target name meaning
	// "no client assigned". An entry whose Client is empty or equal
	// to this renders as NotBillable regardless of its Billable flag,
	// and carries no CustomerRef.
	DefaultClient string
}

// RenderTimeTrackingAdd renders one time entry as a complete QBXML
// request document containing a single TimeTrackingAdd.
func RenderTimeTrackingAdd(entry store.TimeEntry, opts RenderOptions) string {
	billable := entry.Billable && entry.Client != "" && entry.Client != opts.DefaultClient

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<?qbxml version=\"13.0\"?>\n")
	b.WriteString("<QBXML>\n")
	b.WriteString("  <QBXMLMsgsRq onError=\"stopOnError\">\n")
	b.WriteString("    <TimeTrackingAddRq>\n")
	b.WriteString("      <TimeTrackingAdd>\n")

	fmt.Fprintf(&b, "        <TxnDate>%s</TxnDate>\n", entry.Start.Format("2006-01-02"))
	fmt.Fprintf(&b, "        <EntityRef><FullName>%s</FullName></EntityRef>\n", escape(entry.Person))
	if billable {
		fmt.Fprintf(&b, "        <CustomerRef><FullName>%s</FullName></CustomerRef>\n", escape(entry.Client))
	}
	fmt.Fprintf(&b, "        <Duration>%s</Duration>\n", Duration(entry.Hours))
	if billable {
		b.WriteString("        <BillableStatus>Billable</BillableStatus>\n")
	} else {
		b.WriteString("        <BillableStatus>NotBillable</BillableStatus>\n")
	}
	if notes := Notes(entry); notes != "" {
		fmt.Fprintf(&b, "        <Notes>%s</Notes>\n", escape(notes))
	}

	b.WriteString("      </TimeTrackingAdd>\n")
	b.WriteString("    </TimeTrackingAddRq>\n")
	b.WriteString("  </QBXMLMsgsRq>\n")
	b.WriteString("</QBXML>\n")
	return b.String()
}

// Duration converts decimal hours to QuickBooks' ISO-8601-style
// duration form. Hours become whole minutes by round-half-away-from-
// zero, then split into hour and minute components. An exact whole
// hour omits the minutes component entirely: PT2H, not PT2H0M.
func Duration(hours float64) string {
	totalMinutes := int(math.Floor(hours*60 + 0.5))
	h := totalMinutes / 60
	m := totalMinutes % 60
	if m == 0 {
		return fmt.Sprintf("PT%dH", h)
	}
	return fmt.Sprintf("PT%dH%dM", h, m)
}

// notesSeparator joins the optional annotation sub-fields.
const notesSeparator = " | "

// Notes composes the document's free-text annotation from the entry's
// optional sub-fields. Empty sub-fields are dropped; when all three
// are empty the result is empty and the caller omits the element.
func Notes(entry store.TimeEntry) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{entry.Description, entry.Project, entry.Tags} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, notesSeparator)
}

// escape replaces the five XML metacharacters in user-supplied text.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escape(s string) string {
	return escaper.Replace(s)
}
