// Package metrics provides Prometheus metrics and HTTP middleware
// for monitoring the gallery server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by method, route pattern and status code.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthAttemptsTotal counts register and login attempts by outcome.
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_auth_attempts_total",
			Help: "Register and login attempts",
		},
		[]string{"operation", "result"},
	)

	// TokenValidationsTotal counts bearer token checks at the auth gate.
	TokenValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_token_validations_total",
			Help: "Bearer token validations",
		},
		[]string{"result"},
	)

	// AuthorizationDecisionsTotal counts ownership decisions.
	AuthorizationDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_authorization_decisions_total",
			Help: "Ownership authorization decisions",
		},
		[]string{"decision"},
	)

	// OwnerCacheTotal counts owner-id cache lookups by outcome (hit, miss, error).
	OwnerCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_owner_cache_lookups_total",
			Help: "Owner id cache lookups",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthAttemptsTotal,
		TokenValidationsTotal,
		AuthorizationDecisionsTotal,
		OwnerCacheTotal,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latencies. Routes are labelled by
// their chi pattern so path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
