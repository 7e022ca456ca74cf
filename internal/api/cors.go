package api

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/comate/comate/internal/api/middleware"
)

// WithCORS wraps h so browser clients on the given origins can call the API.
// "*" allows any origin.
func WithCORS(h http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.AdminKeyHeader},
		ExposedHeaders: []string{"X-Request-ID"},
	}).Handler(h)
}
