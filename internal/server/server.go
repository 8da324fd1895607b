package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ternarybob/imunetrack/internal/app"
)

// Server is the mock backend's HTTP front: routes, middleware and the listener lifecycle
type Server struct {
	app     *app.App
	handler http.Handler
	http    *http.Server
}

// New builds the routed handler for application; nothing is bound until Listen
func New(application *app.App) *Server {
	s := &Server{app: application}
	s.handler = s.buildHandler(s.setupRoutes())

	cfg := application.Config.Server
	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied, for httptest servers
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address (host:port)
func (s *Server) Addr() string {
	return s.http.Addr
}

// Listen binds the configured address; port 0 picks a free port
func (s *Server) Listen() (net.Listener, error) {
	listener, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return listener, nil
}

// Serve blocks serving on listener; a graceful Shutdown returns nil
func (s *Server) Serve(listener net.Listener) error {
	s.app.Logger.Info().Str("address", listener.Addr().String()).Msg("Mock API listening")

	err := s.http.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("mock API server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx expires.
// WebSocket clients are hijacked connections, so the events hub is closed first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info().Msg("Stopping mock API")

	if s.app.EventsHandler != nil {
		s.app.EventsHandler.Close()
	}
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("mock API shutdown failed: %w", err)
	}

	s.app.Logger.Info().Msg("Mock API stopped")
	return nil
}
