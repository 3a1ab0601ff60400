package middleware

import (
	"context"
	"net/http"

	"github.com/mealmatch/mealmatch-api/internal/http/response"
	"github.com/mealmatch/mealmatch-api/internal/observability"
	"github.com/mealmatch/mealmatch-api/internal/security"
)

type contextKey string

const (
	ClaimsContextKey contextKey = "claims"
)

// AuthMiddleware authenticates requests from the session cookie. Any
// verification failure clears the cookie so the browser does not keep
// replaying a dead session.
func AuthMiddleware(verifier security.TokenVerifier, cookies *security.CookieManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := security.GetCookie(r, security.SessionCookieName)
			if raw == "" {
				observability.RecordSessionValidation(r.Context(), "missing", "cookie")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			claims, err := verifier.VerifySession(raw)
			if err != nil {
				observability.RecordSessionValidation(r.Context(), "invalid", "cookie")
				cookies.ClearSessionCookie(w)
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired session", nil)
				return
			}
			observability.RecordSessionValidation(r.Context(), "valid", "cookie")
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*security.SessionClaims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.SessionClaims)
	return c, ok
}
