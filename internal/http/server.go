// Package http provides the HTTP server and REST API for restreamr.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jmylchreest/restreamr/internal/config"
	"github.com/jmylchreest/restreamr/internal/http/middleware"
	"github.com/jmylchreest/restreamr/internal/version"
)

// Server wraps the HTTP server, router and huma API.
type Server struct {
	config     config.ServerConfig
	logger     *slog.Logger
	router     chi.Router
	api        huma.API
	httpServer *http.Server
}

// New creates a new HTTP server with the standard middleware chain.
func New(cfg config.ServerConfig, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.CORSOrigins
	}
	router.Use(middleware.CORSWithConfig(corsCfg))

	humaConfig := huma.DefaultConfig("restreamr API", version.Short())
	humaConfig.Info.Description = "Video re-streaming orchestration API"
	api := humachi.New(router, humaConfig)

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
		api:    api,
		httpServer: &http.Server{
			Addr:         cfg.Address(),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// API returns the huma API for handler registration.
func (s *Server) API() huma.API {
	return s.api
}

// Router returns the underlying chi router for non-huma routes
// such as WebSocket endpoints.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start begins listening for HTTP requests. It blocks until the
// server stops, returning nil on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight
// requests up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// ListenAndServe runs the server until the context is cancelled, then
// shuts it down gracefully within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return <-errCh
	}
}
