package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ContentTypeJSONAPI is the JSON:API media type.
const ContentTypeJSONAPI = "application/vnd.api+json"

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, "application/json", status, data)
}

// WriteJSONAPI writes a JSON:API document with the JSON:API content type.
func WriteJSONAPI(w http.ResponseWriter, status int, data interface{}) {
	write(w, ContentTypeJSONAPI, status, data)
}

func write(w http.ResponseWriter, contentType string, status int, data interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// WriteJSONAPIError writes a JSON:API error document holding one error.
func WriteJSONAPIError(w http.ResponseWriter, status int, code, title, detail string) {
	WriteJSONAPIErrorResponse(w, status, []JSONAPIErrorObject{NewJSONAPIError(status, code, title, detail)})
}
