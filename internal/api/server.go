// Package api provides the HTTP API server and handlers for Shelfwise.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/ratelimit"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	Name           string
	Version        string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	services *Services
	router   *chi.Mux
	api      huma.API
	metrics  *metrics.Metrics
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, m *metrics.Metrics, opts Options, logger *slog.Logger) *Server {
	if opts.Name == "" {
		opts.Name = "Shelfwise API"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	s := &Server{
		store:    st,
		services: services,
		router:   chi.NewRouter(),
		metrics:  m,
		logger:   logger,
	}
	if opts.RateLimitRPS > 0 && opts.RateLimitBurst > 0 {
		s.limiter = ratelimit.New(opts.RateLimitRPS, opts.RateLimitBurst)
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig(opts.Name, opts.Version)
	humaConfig.Info.Description = "Reading tracker: catalog, shelves, reviews, recommendations and a social feed."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"user": {
			Type: "apiKey",
			In:   "header",
			Name: UserIDHeader,
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background helpers owned by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger, s.metrics))
	s.router.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", UserIDHeader},
		ExposedHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:         300,
	}))

	s.router.Use(identityMiddleware)
	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.metrics, s.logger))
	}
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerGenreRoutes()
	s.registerBookRoutes()
	s.registerSearchRoutes()
	s.registerLibraryRoutes()
	s.registerReviewRoutes()
	s.registerUserRoutes()
	s.registerReadingRoutes()
	s.registerSocialRoutes()
	s.registerAdminRoutes()

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
}
