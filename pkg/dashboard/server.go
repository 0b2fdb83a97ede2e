// Package dashboard serves the company registry search as an HTML page, a
// JSON endpoint and a CSV download.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/registry-dashboard/pkg/auth"
	"github.com/Sternrassler/registry-dashboard/pkg/company"
	"github.com/Sternrassler/registry-dashboard/pkg/logging"
	"github.com/Sternrassler/registry-dashboard/pkg/metrics"
	"github.com/Sternrassler/registry-dashboard/pkg/query"
)

// Collector gathers a bounded result set for a filter.
// *pagination.Aggregator implements it.
type Collector interface {
	Collect(ctx context.Context, cred auth.Credential, filter query.Filter) ([]company.Record, error)
}

// Config holds server configuration.
type Config struct {
	// Port to listen on, without the colon.
	Port string

	// Collector runs searches.
	Collector Collector

	// Credentials supplies the upstream credential for each search.
	Credentials auth.Provider

	// Redis, when set, is pinged by /ready.
	Redis *redis.Client

	// Now overrides the clock used for form defaults (for testing).
	Now func() time.Time
}

// Server is the dashboard HTTP server.
type Server struct {
	httpServer  *http.Server
	router      chi.Router
	collector   Collector
	credentials auth.Provider
	redis       *redis.Client
	now         func() time.Time
	logger      zerolog.Logger
}

// NewServer creates a dashboard server with all routes mounted.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Collector == nil {
		return nil, fmt.Errorf("collector is required")
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("credential provider is required")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		collector:   cfg.Collector,
		credentials: cfg.Credentials,
		redis:       cfg.Redis,
		now:         cfg.Now,
		logger:      logging.NewLogger(logging.ComponentDashboard),
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/api/companies", s.handleAPICompanies)
	r.Get("/export.csv", s.handleExport)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router = r
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler (for testing and embedding).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("Starting dashboard server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping dashboard server")
	return s.httpServer.Shutdown(ctx)
}
