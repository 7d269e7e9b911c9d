package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/haguru/myblog/internal/interfaces"
)

var (
	ReadTimeout       = 10 * time.Second
	ReadHeaderTimeout = 5 * time.Second
	WriteTimeout      = 10 * time.Second
	IdleTimeout       = 30 * time.Second
)

type Server struct {
	Port   string
	Host   string
	Logger interfaces.Logger

	server *http.Server
	mux    *http.ServeMux

	mu          sync.Mutex
	routes      map[string]bool
	middlewares []func(http.Handler) http.Handler
}

// NewServer creates a new Server instance with the specified host and port.
func NewServer(host, port string, logger interfaces.Logger) interfaces.Server {
	s := &Server{
		Host:   host,
		Port:   port,
		Logger: logger,
		mux:    http.NewServeMux(),
		routes: make(map[string]bool),
	}
	s.server = &http.Server{
		Addr:              net.JoinHostPort(host, port),
		ReadTimeout:       ReadTimeout,
		ReadHeaderTimeout: ReadHeaderTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	return s
}

// AddRoute registers handler for route. Registering the same route twice is an error.
func (s *Server) AddRoute(route string, handler func(w http.ResponseWriter, r *http.Request)) error {
	if handler == nil {
		return fmt.Errorf("%s: %s", ErrNilHandler, route)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.routes[route] {
		return fmt.Errorf("%s: %s", ErrDuplicateRoute, route)
	}
	s.routes[route] = true
	s.mux.HandleFunc(route, handler)

	s.Logger.Info("Route added", "route", route)
	return nil
}

// Use appends middleware wrapping every route; the first one added runs outermost.
func (s *Server) Use(middleware ...func(http.Handler) http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middlewares = append(s.middlewares, middleware...)
}

// Handler returns the mux wrapped in the registered middleware.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()

	var h http.Handler = s.mux
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		h = s.middlewares[i](h)
	}
	return h
}

// ListenAndServe starts the HTTP server and blocks until it stops. A server
// stopped through Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.server.Handler = s.Handler()

	s.Logger.Info("Starting server", "host", s.Host, "port", s.Port)
	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.Logger.Error(ErrFailedToStartServer, "error", err)
		return fmt.Errorf("%s: %w", ErrFailedToStartServer, err)
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("Shutting down server", "host", s.Host, "port", s.Port)
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrFailedToShutdownServer, err)
	}
	return nil
}
