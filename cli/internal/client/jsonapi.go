package client

import (
	"encoding/json"
	"fmt"
)

const contentTypeJSONAPI = "application/vnd.api+json"

// jsonAPIDocument is a JSON:API response whose data is decoded later.
type jsonAPIDocument struct {
	Data   json.RawMessage `json:"data"`
	Errors []jsonAPIError  `json:"errors,omitempty"`
}

// jsonAPIResource represents a single JSON:API resource.
type jsonAPIResource struct {
	Type       string          `json:"type"`
	ID         string          `json:"id"`
	Attributes json.RawMessage `json:"attributes"`
}

// jsonAPIError represents a JSON:API error object.
type jsonAPIError struct {
	Status string `json:"status"`
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// jsonAPIRequest wraps attributes in JSON:API format for requests.
type jsonAPIRequest struct {
	Data jsonAPIRequestData `json:"data"`
}

type jsonAPIRequestData struct {
	Type       string      `json:"type"`
	ID         string      `json:"id,omitempty"`
	Attributes interface{} `json:"attributes"`
}

// APIError is returned for JSON:API error documents.
type APIError struct {
	StatusCode int
	Code       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}
