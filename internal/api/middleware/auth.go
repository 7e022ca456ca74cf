package middleware

import (
	"net/http"
	"strings"

	"github.com/comate/comate/internal/api/apierr"
	"github.com/comate/comate/internal/services/auth"
)

// AdminKeyHeader carries the admin key on admin requests
const AdminKeyHeader = "X-Admin-Key"

// AdminOnly rejects requests whose admin key does not pass the guard
func AdminOnly(guard *auth.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := guard.Check(extractKey(r)); err != nil {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractKey reads the admin key from the header, falling back to a bearer token
func extractKey(r *http.Request) string {
	if key := r.Header.Get(AdminKeyHeader); key != "" {
		return key
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
