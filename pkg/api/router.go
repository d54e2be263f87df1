package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/fshare/internal/logger"
	"github.com/marmos91/fshare/pkg/api/handlers"
)

// ServiceName is reported by the liveness endpoint.
const ServiceName = "fshare"

// NewRouter builds the chi router with the middleware stack and all routes.
//
// Routes:
//   - GET /health        liveness plus session counters
//   - GET /health/ready  readiness (503 when the server is full)
//   - GET /metrics       Prometheus exposition, only when reg is non-nil
func NewRouter(status handlers.StatusProvider, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	// Order matters.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(ServiceName, status)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	if reg != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs each request through the internal logger. Scrapes of
// /metrics are logged at debug level only.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		args := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		}
		if r.URL.Path == "/metrics" {
			logger.Debug("API request completed", args...)
			return
		}
		logger.Info("API request completed", args...)
	})
}
