package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telhawk-systems/telhawk-kpi/common/logging"
	"github.com/telhawk-systems/telhawk-kpi/common/middleware"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/handlers"
	kpimw "github.com/telhawk-systems/telhawk-kpi/kpi/internal/middleware"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/ratelimit"
)

// RouterOptions selects the optional middleware. A nil Auth leaves the API
// open; a nil Limiter disables rate limiting.
type RouterOptions struct {
	Logger      *logging.Logger
	Auth        *kpimw.AuthMiddleware
	Limiter     ratelimit.RateLimiter
	RateWindow  time.Duration
	CORSOrigins []string
}

// NewRouter constructs a ServeMux with the KPI API routes registered.
func NewRouter(h *handlers.Handler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	limited := func(next http.Handler) http.Handler {
		if opts.Limiter == nil {
			return next
		}
		return ratelimit.Middleware(opts.Limiter, opts.RateWindow, logger.Logger)(next)
	}
	api := func(next http.HandlerFunc) http.Handler {
		if opts.Auth == nil {
			return limited(next)
		}
		return opts.Auth.RequireAuth(limited(next))
	}
	admin := func(next http.HandlerFunc) http.Handler {
		if opts.Auth == nil {
			return limited(next)
		}
		return opts.Auth.RequireRole(kpimw.RoleAdmin, limited(next))
	}

	mux := http.NewServeMux()

	// KPI endpoints
	mux.Handle("POST /api/v1/kpi/host-details", api(h.HostDetails))

	// Source management
	mux.Handle("GET /api/v1/sources", api(h.ListSources))
	mux.Handle("POST /api/v1/sources", admin(h.UpsertSource))
	mux.Handle("GET /api/v1/sources/{id}", api(h.GetSource))
	mux.Handle("DELETE /api/v1/sources/{id}", admin(h.DeleteSource))

	// Health endpoints
	mux.HandleFunc("GET /healthz", h.HealthCheck)
	mux.HandleFunc("GET /readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	if len(opts.CORSOrigins) > 0 {
		handler = middleware.CORS(middleware.DefaultCORSConfig(opts.CORSOrigins))(handler)
	}
	handler = kpimw.AccessLog(logger)(handler)
	return middleware.RequestID(handler)
}
