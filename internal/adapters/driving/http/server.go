package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/custodia-labs/handover-core/internal/core/ports/driving"
	"github.com/custodia-labs/handover-core/internal/metrics"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     chi.Router
	version    string
	logger     *zap.Logger
	metrics    *metrics.Metrics

	// Services
	authService        driving.AuthService
	aggregationService driving.AggregationService
	handoverService    driving.HandoverService

	// Infrastructure
	store Pinger // handover store health check
	cache Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	aggregationService driving.AggregationService,
	handoverService driving.HandoverService,
	store Pinger,
	cache Pinger, // can be nil
	m *metrics.Metrics, // can be nil
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		router:             chi.NewRouter(),
		version:            cfg.Version,
		logger:             logger.Named("http"),
		metrics:            m,
		authService:        authService,
		aggregationService: aggregationService,
		handoverService:    handoverService,
		store:              store,
		cache:              cache,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes(cfg.AllowedOrigins)
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(allowedOrigins []string) {
	authMiddleware := NewAuthMiddleware(s.authService, s.logger)

	s.router.Use(NewRecoveryMiddleware(s.logger).Handler)
	s.router.Use(NewLoggingMiddleware(s.logger, s.metrics).Handler)
	s.router.Use(NewCORSMiddleware(allowedOrigins).Handler)

	// Health endpoints (no auth)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Get("/version", s.handleVersion)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		// Search endpoint
		r.Post("/search", s.handleSearch)

		// Handover endpoints
		r.Post("/handovers", s.handleSaveHandover)
		r.Get("/handovers", s.handleListHandovers)
		r.Post("/handovers/edit", s.handleEditHandover)
		r.Get("/handovers/{solutionId}", s.handleGetHandover)
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
