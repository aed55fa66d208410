// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package qbxml_test

import (
	"strings"
	"testing"

	"github.com/timebridge-foundation/timebridge/qbxml"
)

const successResponse = `<?xml version="1.0" ?>
<QBXML>
  <QBXMLMsgsRs>
    <TimeTrackingAddRs statusCode="0" statusSeverity="Info" statusMessage="Status OK">
      <TimeTrackingRet><TxnID>1A2B-3C</TxnID></TimeTrackingRet>
    </TimeTrackingAddRs>
  </QBXMLMsgsRs>
</QBXML>`

const failureResponse = `<?xml version="1.0" ?>
<QBXML>
  <QBXMLMsgsRs>
    <TimeTrackingAddRs statusCode="3140" statusSeverity="Error" statusMessage="There is an invalid reference to QuickBooks Employee" />
  </QBXMLMsgsRs>
</QBXML>`

func TestParseSuccess(t *testing.T) {
	status, err := qbxml.ParseTimeTrackingResponse(successResponse)
	if err != nil {
		t.Fatalf("ParseTimeTrackingResponse: %v", err)
	}
	if !status.OK() {
		t.Errorf("OK() = false for statusCode 0")
	}
	if status.Severity != "Info" || status.Message != "Status OK" {
		t.Errorf("status = %+v, want Info / Status OK", status)
	}
}

func TestParseFailure(t *testing.T) {
	status, err := qbxml.ParseTimeTrackingResponse(failureResponse)
	if err != nil {
		t.Fatalf("ParseTimeTrackingResponse: %v", err)
	}
	if status.OK() {
		t.Error("OK() = true for statusCode 3140")
	}
	if status.Code != 3140 {
		t.Errorf("Code = %d, want 3140", status.Code)
	}
	if !strings.Contains(status.String(), "invalid reference") {
		t.Errorf("String() = %q, want the QuickBooks message included", status.String())
	}
}

func TestParseMalformedDocument(t *testing.T) {
	if _, err := qbxml.ParseTimeTrackingResponse("<QBXML><unclosed"); err == nil {
		t.Error("malformed XML should return an error")
	}
}

func TestParseMissingStatusElement(t *testing.T) {
	if _, err := qbxml.ParseTimeTrackingResponse("<QBXML><QBXMLMsgsRs/></QBXML>"); err == nil {
		t.Error("document without TimeTrackingAddRs should return an error")
	}
}

func TestParseBadStatusCode(t *testing.T) {
	doc := `<QBXML><QBXMLMsgsRs><TimeTrackingAddRs statusCode="abc"/></QBXMLMsgsRs></QBXML>`
	if _, err := qbxml.ParseTimeTrackingResponse(doc); err == nil {
		t.Error("non-numeric statusCode should return an error")
	}
}
