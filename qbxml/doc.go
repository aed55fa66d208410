// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package qbxml renders time entries as QBXML request documents and
// parses the response documents QuickBooks returns through the Web
// Connector.
//
// Rendering is a pure function: the same entry always produces the
// same document. The bridge sends exactly one TimeTrackingAdd per
// document so that the Web Connector's per-cycle pass/fail maps to
// exactly one store entry.
package qbxml
