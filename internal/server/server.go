// Package server runs the HTTP listener and shuts it down together with the
// background components registered on it.
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

// ShutdownFunc stops a component, honouring the deadline carried by ctx.
type ShutdownFunc func(ctx context.Context) error

// Options configures the listener.
type Options struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger

	mu            sync.Mutex
	shutdownFuncs []namedShutdown
}

type namedShutdown struct {
	name string
	fn   ShutdownFunc
}

// New creates a Server for handler.
func New(handler http.Handler, opts Options, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           handler,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
		},
		shutdownTimeout: opts.ShutdownTimeout,
		logger:          logger.With("component", "server"),
	}
}

// OnShutdown registers fn to run after the HTTP server stops. Functions run
// last-registered first, so storage registered early closes after the
// workers that use it.
func (s *Server) OnShutdown(name string, fn ShutdownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownFuncs = append(s.shutdownFuncs, namedShutdown{name: name, fn: fn})
}

// Run listens on the configured port until ctx is cancelled or SIGINT or
// SIGTERM arrives, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			// Components may already be running; stop them before reporting.
			_ = s.shutdown()
			return fmt.Errorf("server error: %w", err)
		}
		return s.shutdown()
	case <-ctx.Done():
		s.logger.Info("shutdown requested", "cause", context.Cause(ctx))
		return s.shutdown()
	}
}

// shutdown stops the HTTP server, then every registered component in
// reverse order. All components get a chance to stop even when one fails.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("stopping HTTP server", "timeout", s.shutdownTimeout)
	s.httpServer.SetKeepAlivesEnabled(false)

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("http: %w", err))
	}

	s.mu.Lock()
	funcs := make([]namedShutdown, len(s.shutdownFuncs))
	copy(funcs, s.shutdownFuncs)
	s.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		c := funcs[i]
		s.logger.Info("stopping component", "name", c.name)
		if err := c.fn(ctx); err != nil {
			s.logger.Error("component shutdown error", "name", c.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Info("server stopped gracefully")
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
