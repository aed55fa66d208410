// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package qbxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Status is the outcome QuickBooks reported for one TimeTrackingAdd.
type Status struct {
	// Code is QuickBooks' status code. Zero means the transaction was
	// accepted.
	Code int

	// Severity is Info, Warn, or Error.
	Severity string

	// Message is QuickBooks' human-readable explanation.
	Message string
}

// OK reports whether the transaction was accepted.
func (s Status) OK() bool { return s.Code == 0 }

// String formats the status the way it is surfaced through
// getLastError.
func (s Status) String() string {
	return fmt.Sprintf("TimeTrackingAdd status %d (%s): %s", s.Code, s.Severity, s.Message)
}

// ParseTimeTrackingResponse extracts the TimeTrackingAddRs status from
// the response document the Web Connector relays back. Returns an
// error if the document is not XML or contains no TimeTrackingAddRs
// element.
func ParseTimeTrackingResponse(doc string) (Status, error) {
	decoder := xml.NewDecoder(strings.NewReader(doc))

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return Status{}, fmt.Errorf("qbxml: no TimeTrackingAddRs element in response")
		}
		if err != nil {
			return Status{}, fmt.Errorf("qbxml: parsing response: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "TimeTrackingAddRs" {
			continue
		}

		var status Status
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "statusCode":
				code, err := strconv.Atoi(attr.Value)
				if err != nil {
					return Status{}, fmt.Errorf("qbxml: statusCode %q: %w", attr.Value, err)
				}
				status.Code = code
			case "statusSeverity":
				status.Severity = attr.Value
			case "statusMessage":
				status.Message = attr.Value
			}
		}
		return status, nil
	}
}
