package handlers

import (
	"net/http"

	"github.com/telhawk-systems/telhawk-kpi/common/httputil"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/sources"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/store"
)

const typeSources = "sources"

type sourceAttributes struct {
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name"`
	Indices []string       `json:"indices"`
	Fields  store.FieldMap `json:"fields"`
}

func sourceResource(s *sources.Source) httputil.JSONAPIResource {
	return httputil.JSONAPIResource{
		Type:       typeSources,
		ID:         s.ID,
		Attributes: s,
		Links:      map[string]string{"self": "/api/v1/sources/" + s.ID},
	}
}

// ListSources handles GET /api/v1/sources.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Sources().List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	resources := make([]httputil.JSONAPIResource, 0, len(list))
	for _, s := range list {
		resources = append(resources, sourceResource(s))
	}
	httputil.WriteJSONAPICollection(w, http.StatusOK, resources)
}

// GetSource handles GET /api/v1/sources/{id}.
func (h *Handler) GetSource(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s, err := h.svc.Sources().Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSONAPIResource(w, http.StatusOK, typeSources, s.ID, s)
}

// UpsertSource handles POST /api/v1/sources. The resource ID comes from
// data.id, or from the id attribute when data.id is empty.
func (h *Handler) UpsertSource(w http.ResponseWriter, r *http.Request) {
	if !checkJSONAPI(w, r) {
		return
	}

	var attrs sourceAttributes
	id, err := httputil.DecodeJSONAPIResource(r.Body, typeSources, &attrs)
	if err != nil {
		httputil.WriteJSONAPIError(w, http.StatusBadRequest, "invalid_request", "Invalid Request", err.Error())
		return
	}
	if id == "" {
		id = attrs.ID
	}

	s := &sources.Source{
		ID:      id,
		Name:    attrs.Name,
		Indices: attrs.Indices,
		Fields:  attrs.Fields,
	}
	if err := h.svc.Sources().Upsert(r.Context(), s); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "source saved", "source", s.ID, "indices", s.Indices)
	httputil.WriteJSONAPIResource(w, http.StatusOK, typeSources, s.ID, s)
}

// DeleteSource handles DELETE /api/v1/sources/{id}.
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.Sources().Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "source deleted", "source", id)
	w.WriteHeader(http.StatusNoContent)
}
