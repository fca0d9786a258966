package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"chain-explorer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// Server serves the explorer API over HTTP
type Server struct {
	server *http.Server
	logger *logger.Logger
}

// NewServer creates a server listening on port
func NewServer(port int, handler http.Handler, logger *logger.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.WithComponent("http-server"),
	}
}

// Start binds the listener and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	s.logger.Info("HTTP server started", zap.String("addr", listener.Addr().String()))
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server...")
	return s.server.Shutdown(ctx)
}
