// Package api provides the HTTP API server and handlers for gameshelf.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gameshelf/gameshelf-server/internal/action"
	"github.com/gameshelf/gameshelf-server/internal/metrics"
	"github.com/gameshelf/gameshelf-server/internal/sse"
)

// Pinger reports whether the relational store is reachable.
type Pinger interface {
	Ping() error
}

// Options configures the HTTP surface.
type Options struct {
	Name           string
	Version        string
	AllowedOrigins []string
	MetricsPath    string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db              Pinger
	services        *Services
	actions         *action.Registry
	sseManager      *sse.Manager
	sseHandler      *sse.Handler
	metrics         metrics.Recorder
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *RateLimiter
	ajaxRateLimiter *RateLimiter
	opts            Options
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(db Pinger, services *Services, actions *action.Registry, sseManager *sse.Manager, rec metrics.Recorder, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.New(false)
	}
	if opts.Name == "" {
		opts.Name = "gameshelf"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if actions == nil {
		actions = action.NewRegistry()
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	s := &Server{
		db:              db,
		services:        services,
		actions:         actions,
		sseManager:      sseManager,
		metrics:         rec,
		router:          chi.NewRouter(),
		logger:          logger,
		authRateLimiter: NewRateLimiter(20, time.Minute, 10),
		ajaxRateLimiter: NewRateLimiter(120, time.Minute, 30),
		opts:            opts,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, logger)
	}

	s.setupMiddleware()
	s.api = humachi.New(s.router, humaConfig(opts))
	RegisterErrorHandler()
	s.setupRoutes()

	return s
}

func humaConfig(opts Options) huma.Config {
	cfg := huma.DefaultConfig(opts.Name+" API", opts.Version)
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	return cfg
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases the rate limiters' janitor goroutines.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
	s.ajaxRateLimiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(slogRequestLog(s.logger)))
	s.router.Use(middleware.Recoverer)
	s.router.Use(remoteAddrMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router.Use(metrics.Middleware(s.metrics))
	if s.services != nil && s.services.Auth != nil {
		s.router.Use(authMiddleware(s.services.Auth))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerGameRoutes()
	s.registerCoverRoutes()
	s.registerCollectionRoutes()
	s.registerTeamChoiceRoutes()
	s.registerSubmissionRoutes()

	// Form-encoded and streaming endpoints sit outside huma.
	s.router.With(RateLimitMiddleware(s.ajaxRateLimiter, s.logger)).Post("/ajax", s.handleAjax)
	s.router.Get("/api/v1/events", s.handleEvents)
	s.router.Method(http.MethodGet, s.opts.MetricsPath, s.metrics.Handler())
}
