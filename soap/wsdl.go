// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package soap

import _ "embed"

// WSDL is the service description for the eight QBWC procedures,
// served on GET requests carrying the wsdl query flag. The Web
// Connector itself never fetches it; SOAP tooling does.
//
//go:embed qbwc.wsdl
var WSDL []byte
