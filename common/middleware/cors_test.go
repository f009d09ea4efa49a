package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name          string
		origins       []string
		origin        string
		method        string
		preflight     bool
		expectAllowed bool
		expectStatus  int
	}{
		{name: "exact origin", origins: []string{"https://soc.example.com"}, origin: "https://soc.example.com", method: http.MethodGet, expectAllowed: true, expectStatus: http.StatusOK},
		{name: "wildcard subdomain", origins: []string{"*.example.com"}, origin: "https://app.example.com", method: http.MethodGet, expectAllowed: true, expectStatus: http.StatusOK},
		{name: "any origin", origins: []string{"*"}, origin: "http://localhost:3000", method: http.MethodGet, expectAllowed: true, expectStatus: http.StatusOK},
		{name: "unknown origin", origins: []string{"https://soc.example.com"}, origin: "https://evil.test", method: http.MethodGet, expectAllowed: false, expectStatus: http.StatusOK},
		{name: "no origin", origins: []string{"*"}, origin: "", method: http.MethodGet, expectAllowed: false, expectStatus: http.StatusOK},
		{name: "preflight", origins: []string{"*"}, origin: "http://localhost:3000", method: http.MethodOptions, preflight: true, expectAllowed: true, expectStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(DefaultCORSConfig(tt.origins))(handler)
			req := httptest.NewRequest(tt.method, "/api/v1/sources", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectStatus, rec.Code)
			if tt.expectAllowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "GET, POST, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
				assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORS_Credentials(t *testing.T) {
	cfg := DefaultCORSConfig([]string{"*"})
	cfg.AllowCredentials = true
	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
