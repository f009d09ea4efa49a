package handlers

import (
	"log/slog"
	"net/http"

	"github.com/telhawk-systems/telhawk-kpi/common/httputil"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/metrics"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/service"
)

// Handler serves the KPI HTTP API.
type Handler struct {
	svc    *service.KPIService
	logger *slog.Logger
}

func NewHandler(svc *service.KPIService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger.With(slog.String("component", "http"))}
}

// HealthCheck handles GET /healthz.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.Health(r.Context()))
}

// Ready handles GET /readyz.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := h.svc.Ready(r.Context())
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

// writeServiceError maps a service error onto a JSON:API error response.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	outcome := service.Outcome(err)
	switch outcome {
	case service.OutcomeInvalid:
		httputil.WriteJSONAPIError(w, http.StatusBadRequest, outcome, "Invalid Request", err.Error())
	case service.OutcomeNoIndex, service.OutcomeNotFound:
		httputil.WriteJSONAPIError(w, http.StatusNotFound, outcome, "Not Found", err.Error())
	case service.OutcomeProtected:
		httputil.WriteJSONAPIError(w, http.StatusConflict, outcome, "Conflict", err.Error())
	case service.OutcomeUnavailable:
		httputil.WriteJSONAPIError(w, http.StatusServiceUnavailable, outcome, "Service Unavailable", err.Error())
	case service.OutcomeCancelled:
		// 499 is not standard; clients that went away never read it.
		httputil.WriteJSONAPIError(w, http.StatusGatewayTimeout, outcome, "Request Cancelled", err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		httputil.WriteJSONAPIInternalError(w, "internal error")
	}
}

// checkJSONAPI enforces JSON:API media types on requests with a body.
func checkJSONAPI(w http.ResponseWriter, r *http.Request) bool {
	if !httputil.AcceptsJSONAPI(r) {
		httputil.WriteJSONAPIError(w, http.StatusNotAcceptable, "not_acceptable", "Not Acceptable",
			"Accept must allow "+httputil.ContentTypeJSONAPI)
		return false
	}
	if !httputil.IsJSONAPI(r) {
		httputil.WriteJSONAPIError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "Unsupported Media Type",
			"Content-Type must be "+httputil.ContentTypeJSONAPI)
		return false
	}
	return true
}

func observe(err error) {
	metrics.RequestsTotal.WithLabelValues("http", service.Outcome(err)).Inc()
}
