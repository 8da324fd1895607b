// Package mockapi runs the ImuneTrack mock backend inside a test process.
//
// A Server is started once per test binary (see test/e2e) and shared by every test;
// tests that mutate data call Reset to restore the fixtures.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/app"
	"github.com/ternarybob/imunetrack/internal/common"
	"github.com/ternarybob/imunetrack/internal/handlers"
	"github.com/ternarybob/imunetrack/internal/server"
)

// DefaultStartTimeout bounds the wait for /health after Start
const DefaultStartTimeout = 10 * time.Second

// Server is a mock backend bound to a local port
type Server struct {
	config *common.Config
	logger arbor.ILogger

	app      *app.App
	http     *server.Server
	listener net.Listener
	url      string
	serveErr chan error

	mu      sync.Mutex
	running bool
}

// New creates a stopped mock backend for the given configuration.
// A nil logger falls back to the process logger.
func New(config *common.Config, logger arbor.ILogger) *Server {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Server{
		config: config,
		logger: logger,
	}
}

// Start binds host:port (port 0 picks a free port), serves in the background and
// returns once /health answers or ctx expires
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("mock backend already running")
	}

	application, err := app.New(s.config, s.logger)
	if err != nil {
		return err
	}

	httpServer := server.New(application)
	listener, err := httpServer.Listen()
	if err != nil {
		application.Close()
		return err
	}

	s.app = application
	s.http = httpServer
	s.listener = listener
	s.url = baseURL(s.config.Server.Host, listener.Addr())
	s.serveErr = make(chan error, 1)

	go func() {
		s.serveErr <- httpServer.Serve(listener)
	}()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultStartTimeout)
		defer cancel()
	}

	if err := WaitForHealth(ctx, s.url); err != nil {
		httpServer.Shutdown(context.Background())
		application.Close()
		return err
	}

	s.running = true
	s.logger.Info().Str("url", s.url).Msg("Mock backend ready")
	return nil
}

// URL returns the base URL of the running backend (e.g. http://localhost:8000)
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Port returns the bound port
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Reset restores the fixtures
func (s *Server) Reset(ctx context.Context) error {
	s.mu.Lock()
	application := s.app
	s.mu.Unlock()

	if application == nil {
		return errors.New("mock backend not started")
	}
	return application.Reset(ctx)
}

// Events returns the backend's event hub
func (s *Server) Events() *handlers.EventsHandler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.app == nil {
		return nil
	}
	return s.app.EventsHandler
}

// App returns the underlying application
func (s *Server) App() *app.App {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.app
}

// Stop shuts the backend down and releases storage. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := <-s.serveErr; err != nil {
		errs = append(errs, err)
	}
	if err := s.app.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// WaitForHealth polls GET {url}/health until it answers 200 or ctx is done
func WaitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/health", nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("mock backend at %s not healthy: %w", url, ctx.Err())
		case <-ticker.C:
		}
	}
}

// baseURL maps wildcard hosts to localhost so browsers can reach the backend
func baseURL(host string, addr net.Addr) string {
	port := strconv.Itoa(addr.(*net.TCPAddr).Port)
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
