// Package httpapi is the thin HTTP surface of spec §6: handlers map
// directly to JobService/ScheduleService calls (and, for task definitions —
// not a core component per spec §1 — directly to the repository), never
// containing business logic of their own.
//
// Server's lifecycle is grounded on petabytecl-gaz/server/http.Server:
// ListenAndServe in a goroutine on Start, graceful http.Server.Shutdown on
// Stop, adapted to this daemon's worker.Worker contract instead of gaz's
// di.Starter/di.Stopper.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ServerConfig configures Server's underlying http.Server, mirroring
// petabytecl-gaz/server/http.Config's timeout fields.
type ServerConfig struct {
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
}

// DefaultServerConfig returns spec §6's port (13939) with conservative
// timeout defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:              13939,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Server wraps an *http.Server as a worker.Worker.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer builds a Server serving handler on cfg.Port.
func NewServer(cfg ServerConfig, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		logger: logger.With(slog.String("component", "httpapi.Server")),
		server: &http.Server{
			Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
	}
}

// Name implements worker.Worker.
func (s *Server) Name() string { return "http" }

// Start implements worker.Worker: non-blocking, serves in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("http server starting", slog.String("addr", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", slog.Any("error", err))
		}
	}()
	return nil
}

// Stop implements worker.Worker: graceful shutdown within ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("http server stopping")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	return nil
}
