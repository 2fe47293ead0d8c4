// Package core provides the API chassis for the push service. It creates a
// chi router and enforces cross-cutting concerns -- panic recovery, request
// correlation, logging, and error handling -- before requests reach the
// domain handlers.
package core

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"expopush/internal/config"
)

// defaultRequestTimeout is the soft deadline applied to request contexts.
const defaultRequestTimeout = 29 * time.Second

// defaultRedactedHeaders lists header names whose values are masked in
// request logs.
var defaultRedactedHeaders = []string{
	"Authorization",
	"Cookie",
}

// Server holds the dependencies shared by all handlers and owns the router.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	HealthProbes []HealthProbe

	router *chi.Mux
}

// NewServer initializes the chassis. The caller mounts domain routes via
// MountRoutes after construction.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// MountRoutes registers the global middleware chain, the health endpoint,
// and the v1 route registrars in order.
//
// Middleware ordering:
//  1. Recoverer       - outermost so all panics are caught.
//  2. ContextTimeout  - soft deadline before the platform hard timeout.
//  3. RequestID       - correlation ID for tracing.
//  4. SecurityHeaders - present on every response regardless of outcome.
//  5. RequestLogger   - structured logging with redacted headers.
func (s *Server) MountRoutes(registrars ...func(chi.Router)) {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(defaultRequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))

	s.router.Get("/healthz", s.HandleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		for _, registrar := range registrars {
			registrar(r)
		}
	})
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration in tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
