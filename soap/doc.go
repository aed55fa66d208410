// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package soap encodes and decodes the SOAP 1.1 envelopes the
// QuickBooks Web Connector exchanges with the bridge.
//
// Decoding produces a tagged [Request]: exactly one of its typed call
// fields is non-nil, so the transport dispatches on structure instead
// of procedure-name strings. An envelope naming a procedure outside
// the QBWC contract decodes to an [UnknownProcedureError], which the
// transport turns into a SOAP fault.
//
// The WSDL describing the eight procedures is embedded and served for
// tooling discovery.
package soap
