// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"
)

// handleQWC serves the Web Connector configuration file. The
// bookkeeper downloads this once and adds it to the Web Connector,
// which then knows the service URL, the username to prompt a password
// for, and the autorun schedule.
func (s *Server) handleQWC(w http.ResponseWriter, r *http.Request) {
	if s.app == nil {
		http.Error(w, "no application config loaded", http.StatusNotFound)
		return
	}

	var b bytes.Buffer
	b.WriteString("<?xml version=\"1.0\"?>\n")
	b.WriteString("<QBWCXML>\n")
	writeElement(&b, "AppName", s.app.QWC.AppName)
	writeElement(&b, "AppID", "")
	writeElement(&b, "AppURL", s.app.PublicURL+"/qbwc")
	writeElement(&b, "AppDescription", s.app.QWC.Description)
	writeElement(&b, "AppSupport", s.app.PublicURL+"/support")
	writeElement(&b, "UserName", s.app.Auth.Username)
	writeElement(&b, "OwnerID", s.app.QWC.OwnerID)
	writeElement(&b, "FileID", s.app.QWC.FileID)
	writeElement(&b, "QBType", "QBFS")
	if s.app.QWC.RunEveryMinutes > 0 {
		b.WriteString("  <Scheduler>\n")
		fmt.Fprintf(&b, "    <RunEveryNMinutes>%d</RunEveryNMinutes>\n", s.app.QWC.RunEveryMinutes)
		b.WriteString("  </Scheduler>\n")
	}
	b.WriteString("</QBWCXML>\n")

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", `attachment; filename="timebridge.qwc"`)
	w.Write(b.Bytes())
}

func writeElement(b *bytes.Buffer, name, value string) {
	b.WriteString("  <" + name + ">")
	_ = xml.EscapeText(b, []byte(value))
	b.WriteString("</" + name + ">\n")
}

// handleSupport is the human-readable page the Web Connector links to
// from its application list.
func (s *Server) handleSupport(w http.ResponseWriter, r *http.Request) {
	appName := "Timebridge"
	if s.app != nil && s.app.QWC.AppName != "" {
		appName = s.app.QWC.AppName
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>%[1]s</title></head>
<body>
<h1>%[1]s</h1>
<p>This service syncs pending time entries into QuickBooks through the
QuickBooks Web Connector.</p>
<p>To connect: download the <a href="/qbwc.qwc">configuration file</a>,
add it in the Web Connector, and enter the configured password when
prompted.</p>
<p>If a sync reports errors, the Web Connector log shows the reason
reported by QuickBooks. Failed entries stay pending and are retried on
the next run.</p>
</body>
</html>
`, appName)
}

// handleCert exists so the Web Connector's certificate check, which
// fetches a page from the service host, gets a well-formed answer.
func (s *Server) handleCert(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK\n"))
}
