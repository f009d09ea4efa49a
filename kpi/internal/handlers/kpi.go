package handlers

import (
	"net/http"

	"github.com/telhawk-systems/telhawk-kpi/common/httputil"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/models"
)

const typeHostDetails = "kpi-host-details"

// HostDetails handles POST /api/v1/kpi/host-details.
func (h *Handler) HostDetails(w http.ResponseWriter, r *http.Request) {
	if !checkJSONAPI(w, r) {
		return
	}

	var req models.HostDetailsRequest
	if _, err := httputil.DecodeJSONAPIResource(r.Body, typeHostDetails, &req); err != nil {
		httputil.WriteJSONAPIError(w, http.StatusBadRequest, "invalid_request", "Invalid Request", err.Error())
		return
	}

	data, err := h.svc.HostDetails(r.Context(), &req)
	observe(err)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSONAPIResource(w, http.StatusOK, typeHostDetails, req.HostName, data)
}
