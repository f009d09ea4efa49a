package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// JSONAPIResource represents a single JSON:API resource.
type JSONAPIResource struct {
	Type       string      `json:"type"`
	ID         string      `json:"id,omitempty"`
	Attributes interface{} `json:"attributes"`
	Links      map[string]string `json:"links,omitempty"`
}

// JSONAPIErrorObject represents a single JSON:API error. Status is a
// string as the JSON:API format requires.
type JSONAPIErrorObject struct {
	Status string            `json:"status,omitempty"`
	Code   string            `json:"code,omitempty"`
	Title  string            `json:"title,omitempty"`
	Detail string            `json:"detail,omitempty"`
	Source map[string]string `json:"source,omitempty"`
}

// NewJSONAPIError creates a single JSON:API error object.
func NewJSONAPIError(status int, code, title, detail string) JSONAPIErrorObject {
	return JSONAPIErrorObject{
		Status: strconv.Itoa(status),
		Code:   code,
		Title:  title,
		Detail: detail,
	}
}

// WriteJSONAPIResource writes a single JSON:API resource response.
//
// Example:
//
//	httputil.WriteJSONAPIResource(w, http.StatusOK, "source", src.ID, src)
func WriteJSONAPIResource(w http.ResponseWriter, status int, resourceType, id string, attributes interface{}) {
	WriteJSONAPI(w, status, map[string]interface{}{
		"data": JSONAPIResource{
			Type:       resourceType,
			ID:         id,
			Attributes: attributes,
		},
	})
}

// WriteJSONAPICollection writes a JSON:API collection with a total count in meta.
func WriteJSONAPICollection(w http.ResponseWriter, status int, resources []JSONAPIResource) {
	if resources == nil {
		resources = []JSONAPIResource{}
	}
	WriteJSONAPI(w, status, map[string]interface{}{
		"data": resources,
		"meta": map[string]interface{}{"total": len(resources)},
	})
}

// WriteJSONAPIErrorResponse writes a JSON:API error document.
func WriteJSONAPIErrorResponse(w http.ResponseWriter, status int, errs []JSONAPIErrorObject) {
	WriteJSONAPI(w, status, map[string]interface{}{"errors": errs})
}

// WriteJSONAPIValidationError writes a 400 validation error response.
func WriteJSONAPIValidationError(w http.ResponseWriter, detail string) {
	WriteJSONAPIError(w, http.StatusBadRequest, "validation_failed", "Validation Failed", detail)
}

// WriteJSONAPINotFoundError writes a 404 not found error response.
func WriteJSONAPINotFoundError(w http.ResponseWriter, resourceType, id string) {
	WriteJSONAPIError(w, http.StatusNotFound, "not_found", "Resource Not Found",
		"The requested "+resourceType+" with ID '"+id+"' was not found")
}

// WriteJSONAPIUnauthorizedError writes a 401 unauthorized error response.
func WriteJSONAPIUnauthorizedError(w http.ResponseWriter, detail string) {
	WriteJSONAPIError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", detail)
}

// WriteJSONAPIInternalError writes a 500 internal server error response.
// Log the underlying error before calling it.
func WriteJSONAPIInternalError(w http.ResponseWriter, detail string) {
	WriteJSONAPIError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", detail)
}

// ErrWrongType is returned by DecodeJSONAPIResource when data.type does not
// match the expected resource type.
var ErrWrongType = errors.New("unexpected resource type")

// DecodeJSONAPIResource reads a JSON:API document of resourceType and
// decodes its attributes into dst. It returns the resource ID, if any.
func DecodeJSONAPIResource(body io.Reader, resourceType string, dst interface{}) (string, error) {
	var payload struct {
		Data *struct {
			Type       string          `json:"type"`
			ID         string          `json:"id"`
			Attributes json.RawMessage `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return "", fmt.Errorf("invalid JSON:API document: %w", err)
	}
	if payload.Data == nil {
		return "", errors.New("invalid JSON:API document: missing data")
	}
	if payload.Data.Type != resourceType {
		return "", fmt.Errorf("%w: data.type must be '%s'", ErrWrongType, resourceType)
	}
	if len(payload.Data.Attributes) > 0 {
		if err := json.Unmarshal(payload.Data.Attributes, dst); err != nil {
			return "", fmt.Errorf("invalid attributes: %w", err)
		}
	}
	return payload.Data.ID, nil
}

// AcceptsJSONAPI reports whether the Accept header allows JSON:API.
func AcceptsJSONAPI(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" || strings.Contains(accept, "*/*") {
		return true
	}
	return strings.Contains(accept, ContentTypeJSONAPI)
}

// IsJSONAPI reports whether the request body is declared as JSON:API.
func IsJSONAPI(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), ContentTypeJSONAPI)
}
