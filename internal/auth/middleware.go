package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/utamuwetu/storefront/internal/config"
)

type contextKey struct{}

var claimsKey contextKey

// Middleware rejects requests without a valid Bearer token and stores the
// parsed claims on the request context.
func Middleware(cfg *config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			claims, err := ParseToken(cfg, token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// FromContext returns the claims the middleware attached, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// UserID returns the authenticated user id, or zero when unauthenticated.
func UserID(ctx context.Context) int64 {
	if claims, ok := FromContext(ctx); ok {
		return claims.UserID
	}
	return 0
}
