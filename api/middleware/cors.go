package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var (
	corsAllowedHeaders = []string{"Accept", "Content-Type", customerIDHeader, idempotencyHeader, requestIDHeader}
	corsExposedHeaders = []string{requestIDHeader, replayedHeader, "Retry-After"}
)

// CORS allows the configured storefront origins. Shoppers read replay and
// backoff headers from the browser, so those are exposed too.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   corsAllowedHeaders,
		ExposedHeaders:   corsExposedHeaders,
		AllowCredentials: len(origins) > 0 && origins[0] != "*",
		MaxAge:           300,
	}).Handler
}
