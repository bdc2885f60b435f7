// Package server owns the HTTP listener lifecycle: start, graceful stop,
// and a forced close once the shutdown deadline passes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Server struct {
	srv             *http.Server
	logger          *zap.SugaredLogger
	shutdownTimeout time.Duration
}

func New(addr string, handler http.Handler, logger *zap.SugaredLogger, shutdownTimeout time.Duration) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
}

// Start listens on the configured address and serves in the background.
// Listen errors are returned; serve errors after that are sent on the channel.
func (s *Server) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ln), nil
}

// Serve serves on ln in the background. The channel receives at most one
// error and is closed when serving ends.
func (s *Server) Serve(ln net.Listener) <-chan error {
	errc := make(chan error, 1)
	s.logger.Infow("http server listening", "addr", ln.Addr().String())
	go func() {
		defer close(errc)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	return errc
}

// Stop drains in-flight requests until the shutdown timeout or ctx ends,
// then closes remaining connections.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	err := s.srv.Shutdown(ctx)
	if err == nil {
		s.logger.Info("http server stopped")
		return nil
	}
	s.logger.Warnw("graceful shutdown timed out, forcing close", "err", err)
	if cerr := s.srv.Close(); cerr != nil {
		return fmt.Errorf("force close: %w", cerr)
	}
	return fmt.Errorf("shutdown: %w", err)
}
