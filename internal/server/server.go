package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"safetyintel/internal/config"
	"safetyintel/internal/domain"
	"safetyintel/internal/server/handlers"
)

// Server represents the HTTP API server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates the HTTP API server over svc.
func NewServer(cfg config.ServerConfig, defaults handlers.Defaults, svc domain.SafetyService, logger *log.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CorsOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	h := handlers.NewSafetyHandler(svc, defaults, logger)
	perMinute := cfg.SearchRatePerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	limiter := newIPRateLimiter(perMinute)

	router.Get("/", h.Root)
	router.Get("/health", h.Health)
	router.With(limiter.middleware).Get("/search", h.Search)
	router.Get("/hotspots", h.Hotspots)
	router.Get("/trends", h.Trends)
	router.Get("/risk", h.Risk)
	router.Get("/patrols", h.Patrols)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSecs) * time.Second,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
