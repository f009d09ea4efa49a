package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/telhawk-systems/telhawk-kpi/common/httputil"
	"github.com/telhawk-systems/telhawk-kpi/common/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// AccessLog logs one line per request. Probe and scrape paths log at debug.
func AccessLog(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch r.URL.Path {
			case "/healthz", "/readyz", "/metrics":
				level = slog.LevelDebug
			}
			logger.WithContext(r.Context()).Log(r.Context(), level, "http request",
				logging.Method(r.Method),
				logging.Path(r.URL.Path),
				logging.Status(rec.status),
				logging.IP(httputil.GetClientIP(r)),
				logging.Duration(time.Since(start).Milliseconds()))
		})
	}
}
