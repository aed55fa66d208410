// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/timebridge-foundation/timebridge/lib/config"
	"github.com/timebridge-foundation/timebridge/qbwc"
	"github.com/timebridge-foundation/timebridge/soap"
)

// maxEnvelopeBytes bounds the inbound SOAP body. QBWC envelopes are
// small; response documents relayed back are at most a few kilobytes.
const maxEnvelopeBytes = 4 << 20

// Config holds the parameters for creating a Server.
type Config struct {
	// ListenAddress is the TCP address to bind, e.g. "127.0.0.1:8077".
	ListenAddress string

	// Dispatcher handles the decoded QBWC procedure calls.
	Dispatcher *qbwc.Dispatcher

	// App supplies the values for the generated QWC file and support
	// page.
	App *config.Config

	// Logger receives request logs. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Server is the bridge's HTTP front end.
type Server struct {
	listenAddress string
	dispatcher    *qbwc.Dispatcher
	app           *config.Config
	httpServer    *http.Server
	listener      net.Listener
	logger        *slog.Logger
}

// New creates a server. Call Start to begin listening.
func New(cfg Config) (*Server, error) {
	if cfg.ListenAddress == "" {
		return nil, fmt.Errorf("server: listen address is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("server: dispatcher is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := &Server{
		listenAddress: cfg.ListenAddress,
		dispatcher:    cfg.Dispatcher,
		app:           cfg.App,
		logger:        logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/qbwc", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			server.handleSOAP(w, r)
		case http.MethodGet:
			server.handleWSDL(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/qbwc.qwc", requireGet(server.handleQWC))
	mux.HandleFunc("/support", requireGet(server.handleSupport))
	mux.HandleFunc("/cert", requireGet(server.handleCert))
	mux.HandleFunc("/health", requireGet(server.handleHealth))

	server.httpServer = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server, nil
}

// requireGet rejects non-GET requests with 405 Method Not Allowed.
func requireGet(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// Start binds the listener and begins serving in a background
// goroutine.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.listenAddress)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.listenAddress, err)
	}
	s.listener = listener

	s.logger.Info("qbwc server started", "address", listener.Addr().String())

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address. Useful when the configured address
// requested an ephemeral port.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.listenAddress
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the server, draining in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down qbwc server")
	return s.httpServer.Shutdown(ctx)
}

// handleSOAP decodes one envelope, dispatches, and encodes the return.
func (s *Server) handleSOAP(w http.ResponseWriter, r *http.Request) {
	request, err := soap.DecodeRequest(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
	if err != nil {
		s.logger.Warn("undecodable SOAP request", "error", err, "remote", r.RemoteAddr)
		writeXML(w, http.StatusInternalServerError, soap.EncodeFault("Client", err.Error()))
		return
	}

	s.logger.Debug("qbwc call", "procedure", request.Procedure(), "remote", r.RemoteAddr)

	ctx := r.Context()
	d := s.dispatcher

	var response []byte
	switch {
	case request.ServerVersion != nil:
		response = soap.EncodeStringResult("serverVersion", d.ServerVersion())
	case request.ClientVersion != nil:
		response = soap.EncodeStringResult("clientVersion", d.ClientVersion(request.ClientVersion.Version))
	case request.Authenticate != nil:
		result := d.Authenticate(request.Authenticate.Username, request.Authenticate.Password)
		response = soap.EncodeAuthenticateResult(result[0], result[1])
	case request.SendRequestXML != nil:
		response = soap.EncodeStringResult("sendRequestXML", d.SendRequestXML(ctx, request.SendRequestXML.Ticket))
	case request.ReceiveResponseXML != nil:
		call := request.ReceiveResponseXML
		progress := d.ReceiveResponseXML(ctx, call.Ticket, call.Response, call.HResult, call.Message)
		response = soap.EncodeIntResult("receiveResponseXML", progress)
	case request.ConnectionError != nil:
		call := request.ConnectionError
		response = soap.EncodeStringResult("connectionError", d.ConnectionError(call.Ticket, call.HResult, call.Message))
	case request.GetLastError != nil:
		response = soap.EncodeStringResult("getLastError", d.GetLastError(request.GetLastError.Ticket))
	case request.CloseConnection != nil:
		response = soap.EncodeStringResult("closeConnection", d.CloseConnection(request.CloseConnection.Ticket))
	default:
		writeXML(w, http.StatusInternalServerError, soap.EncodeFault("Server", "no procedure decoded"))
		return
	}

	writeXML(w, http.StatusOK, response)
}

// handleWSDL serves the service description when the wsdl query flag
// is present; a bare GET gets pointed at the support page.
func (s *Server) handleWSDL(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("wsdl") {
		http.Redirect(w, r, "/support", http.StatusFound)
		return
	}
	writeXML(w, http.StatusOK, soap.WSDL)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeXML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}
