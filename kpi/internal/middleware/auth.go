// Package middleware holds the KPI API's HTTP middleware.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/telhawk-systems/telhawk-kpi/common/httputil"
	"github.com/telhawk-systems/telhawk-kpi/kpi/pkg/tokens"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// RoleAdmin may change sources.
const RoleAdmin = "admin"

type AuthMiddleware struct {
	tokens *tokens.TokenGenerator
	logger *slog.Logger
}

func NewAuthMiddleware(tg *tokens.TokenGenerator, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tg, logger: logger}
}

// RequireAuth rejects requests without a valid bearer token and stores
// the token claims in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteJSONAPIUnauthorizedError(w, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteJSONAPIUnauthorizedError(w, "invalid authorization header")
			return
		}

		claims, err := m.tokens.ValidateAccessToken(parts[1])
		if err != nil {
			m.logger.DebugContext(r.Context(), "rejected bearer token", slog.String("error", err.Error()))
			httputil.WriteJSONAPIUnauthorizedError(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole wraps next with RequireAuth and additionally demands role.
func (m *AuthMiddleware) RequireRole(role string, next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil || !claims.HasRole(role) {
			httputil.WriteJSONAPIError(w, http.StatusForbidden, "forbidden", "Forbidden", "role '"+role+"' required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// ClaimsFromContext returns the claims stored by RequireAuth, or nil.
func ClaimsFromContext(ctx context.Context) *tokens.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*tokens.Claims)
	return claims
}
