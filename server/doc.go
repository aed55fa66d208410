// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package server is the HTTP transport in front of the QBWC
// dispatcher.
//
// One endpoint carries the whole protocol: the Web Connector POSTs
// SOAP envelopes to /qbwc, and the handler decodes each envelope,
// invokes the matching dispatcher method, and encodes the return. The
// remaining routes are static conveniences for the bookkeeper setting
// up the connection: the WSDL (GET /qbwc?wsdl), the generated .qwc
// configuration file, a support page, and a certificate-check page.
//
// Protocol-level problems (bad credentials, unknown tickets, store
// failures) never become HTTP errors — they travel inside successful
// SOAP responses as the sentinel values the Web Connector understands.
// Only an envelope the bridge cannot decode produces a SOAP fault.
package server
