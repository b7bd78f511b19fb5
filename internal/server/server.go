// Package server provides the HTTP front end of the blog.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/inkwell/internal/config"
	"github.com/hyperjump/inkwell/internal/metrics"
	"github.com/hyperjump/inkwell/internal/render"
	"github.com/hyperjump/inkwell/internal/search"
	"go.uber.org/zap"
)

// Server is the HTTP server for the site.
type Server struct {
	engine   *search.Engine
	renderer *render.Renderer
	webhook  http.Handler
	metrics  *metrics.Metrics
	config   *config.Config
	logger   *zap.Logger
	router   chi.Router
	server   *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetrics enables request metrics and the scrape endpoint.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a server with the given dependencies and builds its routes.
func NewServer(
	engine *search.Engine,
	renderer *render.Renderer,
	webhook http.Handler,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...ServerOption,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:   engine,
		renderer: renderer,
		webhook:  webhook,
		config:   cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(securityHeaders)
	r.Use(s.requestLogger)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(s.recoverer)
	r.Use(middleware.GetHead)
	r.Use(middleware.Compress(5))

	r.NotFound(s.handleNotFound)

	// The deploy script runs inside the request and has no deadline.
	r.Post("/update_webhook/", s.webhook.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/", s.handleIndex)
		r.Get("/posts", s.handlePosts)
		r.Get("/search", s.handleSearchForm)
		r.Post("/search", s.handleSearchSubmit)
		r.Get("/results", s.handleSearchForm)
		r.Post("/results", s.handleResults)
		r.Get("/healthz", s.handleHealth)
		if s.metrics != nil && s.config.Metrics.EnabledOrDefault() {
			r.Method(http.MethodGet, s.config.Metrics.Path, s.metrics.Handler())
		}
		r.Get("/*", s.handlePost)
	})
	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops. A graceful Stop
// is not reported as an error, even when it happens before Start.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
