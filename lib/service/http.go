// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// DefaultShutdownTimeout bounds graceful shutdown when
// HTTPServerConfig.ShutdownTimeout is zero.
const DefaultShutdownTimeout = 10 * time.Second

// HealthPath serves the Health report when one is configured.
const HealthPath = "/healthz"

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	// Address is the TCP listen address (":8080", "127.0.0.1:0").
	Address string
	// Handler receives every request not routed to HealthPath.
	Handler http.Handler
	// Health, if set, is encoded as JSON for GET HealthPath.
	Health func() any

	// ShutdownTimeout bounds how long in-flight requests may run after
	// the serve context ends.
	ShutdownTimeout time.Duration

	Logger *slog.Logger
}

// HTTPServer serves a handler on a TCP listener until its context ends.
type HTTPServer struct {
	address         string
	handler         http.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration

	ready chan struct{}
	addr  net.Addr
}

// NewHTTPServer creates a server. Panics if Address, Handler, or Logger
// is missing.
func NewHTTPServer(config HTTPServerConfig) *HTTPServer {
	switch {
	case config.Address == "":
		panic("service.HTTPServer: Address is required")
	case config.Handler == nil:
		panic("service.HTTPServer: Handler is required")
	case config.Logger == nil:
		panic("service.HTTPServer: Logger is required")
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}

	handler := config.Handler
	if config.Health != nil {
		mux := http.NewServeMux()
		mux.Handle("GET "+HealthPath, healthHandler(config.Health))
		mux.Handle("/", config.Handler)
		handler = mux
	}

	return &HTTPServer{
		address:         config.Address,
		handler:         handler,
		logger:          config.Logger.With("component", "http"),
		shutdownTimeout: config.ShutdownTimeout,
		ready:           make(chan struct{}),
	}
}

func healthHandler(report func() any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body, err := json.Marshal(report())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	})
}

// Ready is closed once the listener is bound.
func (s *HTTPServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address. Valid after Ready is closed.
func (s *HTTPServer) Addr() net.Addr {
	return s.addr
}

// Serve binds the listener and serves until ctx ends. It then stops
// accepting connections and gives in-flight requests up to the
// shutdown timeout.
func (s *HTTPServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.logger.Info("listening", "address", s.addr.String())

	failed := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		return fmt.Errorf("serving %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down %s: %w", s.addr, err)
	}
	s.logger.Info("stopped")
	return nil
}
