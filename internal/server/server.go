// Package server provides HTTP server lifecycle management.
// Includes graceful shutdown handling for production deployments.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc is a function that shuts down a component gracefully.
type ShutdownFunc func(ctx context.Context) error

type listener struct {
	name string
	srv  *http.Server
	addr string
}

// Server runs one or more HTTP listeners with graceful shutdown.
type Server struct {
	listeners       []*listener
	shutdownTimeout time.Duration
	logger          *slog.Logger
	shutdownFuncs   []ShutdownFunc
	ready           chan struct{}
	mu              sync.Mutex
}

// New creates a new Server with the primary "api" listener.
func New(handler http.Handler, port int, readTimeout, writeTimeout, shutdownTimeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
		shutdownFuncs:   make([]ShutdownFunc, 0),
		ready:           make(chan struct{}),
	}
	s.addListener("api", handler, port, readTimeout, writeTimeout)
	return s
}

// AddListener registers an additional listener, such as the admin endpoints.
// It must be called before Run.
func (s *Server) AddListener(name string, handler http.Handler, port int) {
	api := s.listeners[0].srv
	s.addListener(name, handler, port, api.ReadTimeout, api.WriteTimeout)
}

func (s *Server) addListener(name string, handler http.Handler, port int, readTimeout, writeTimeout time.Duration) {
	s.listeners = append(s.listeners, &listener{
		name: name,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readTimeout,
			WriteTimeout:      writeTimeout,
		},
	})
}

// OnShutdown registers a function to be called during graceful shutdown.
// Shutdown functions are called in reverse order (LIFO) after the HTTP listeners stop.
func (s *Server) OnShutdown(name string, fn ShutdownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownFuncs = append(s.shutdownFuncs, func(ctx context.Context) error {
		s.logger.Info("shutting down component", "name", name)
		if err := fn(ctx); err != nil {
			s.logger.Error("component shutdown error", "name", name, "error", err)
			return err
		}
		s.logger.Info("component stopped", "name", name)
		return nil
	})
}

// Ready is closed once every listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address of the named listener, or its configured
// address before Run has bound it.
func (s *Server) Addr(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listeners {
		if l.name == name {
			if l.addr != "" {
				return l.addr
			}
			return l.srv.Addr
		}
	}
	return ""
}

// Run starts every listener and blocks until ctx is done, SIGINT/SIGTERM
// is received, or a listener fails. Shutdown is graceful in all cases.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, len(s.listeners))

	for _, l := range s.listeners {
		ln, err := net.Listen("tcp", l.srv.Addr)
		if err != nil {
			_ = s.gracefulShutdown()
			return fmt.Errorf("%s listener: %w", l.name, err)
		}

		s.mu.Lock()
		l.addr = ln.Addr().String()
		s.mu.Unlock()

		s.logger.Info("server starting", "listener", l.name, "addr", l.addr)

		go func(l *listener, ln net.Listener) {
			if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("%s listener: %w", l.name, err)
			}
		}(l, ln)
	}
	close(s.ready)

	select {
	case err := <-serverErr:
		_ = s.gracefulShutdown()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received", "cause", context.Cause(ctx))
		return s.gracefulShutdown()
	}
}

// gracefulShutdown stops every listener, then every registered component.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	// Phase 1: Stop accepting new connections
	s.logger.Info("phase 1: stopping HTTP listeners", "timeout", s.shutdownTimeout)

	var wg sync.WaitGroup
	for _, l := range s.listeners {
		wg.Add(1)
		go func(l *listener) {
			defer wg.Done()
			l.srv.SetKeepAlivesEnabled(false)
			if err := l.srv.Shutdown(ctx); err != nil {
				s.logger.Error("HTTP listener shutdown error", "listener", l.name, "error", err)
			}
		}(l)
	}
	wg.Wait()
	s.logger.Info("HTTP listeners stopped")

	// Phase 2: Shutdown registered components in reverse order
	s.mu.Lock()
	funcs := s.shutdownFuncs
	s.mu.Unlock()

	s.logger.Info("phase 2: stopping registered components", "count", len(funcs))

	var errs []error
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		s.logger.Error("shutdown completed with errors", "error_count", len(errs))
		return errors.Join(errs...)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}
