// Package handler provides HTTP handlers for the gallery API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/metrics"
)

// DatabaseChecker reports whether the document store is reachable.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AuthHandler  *AuthHandler
	ImageHandler *ImageHandler

	// AuthGate protects everything under /api.
	AuthGate func(http.Handler) http.Handler

	// Database is pinged by /health. Optional.
	Database DatabaseChecker

	// CORSOrigins enables CORS for the listed origins when non-empty.
	CORSOrigins []string

	Logger zerolog.Logger
}

// Router handles HTTP routing for the gallery API.
type Router struct {
	cfg    RouterConfig
	logger zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(rt.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	if len(rt.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	// Public routes
	r.Get("/health", rt.handleHealth)
	r.Get("/hello", rt.handleHello)
	if rt.cfg.AuthHandler != nil {
		rt.cfg.AuthHandler.RegisterRoutes(r)
	}

	// Everything under /api requires a bearer token.
	r.Route("/api", func(api chi.Router) {
		api.Use(rt.cfg.AuthGate)
		if rt.cfg.ImageHandler != nil {
			rt.cfg.ImageHandler.RegisterRoutes(api)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "")
	})

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.Database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := rt.cfg.Database.Ping(ctx); err != nil {
			rt.logger.Warn().Err(err).Msg("health check: database unreachable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (rt *Router) handleHello(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Hello, World"))
}

// requestLogger logs one line per request.
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rt.logger.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
