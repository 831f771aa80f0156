package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/storefront-promotions/api/responses"
)

// CORS allows the configured admin frontends. Blank entries are ignored and an empty list
// falls back to the local dev frontend; "*" disables credentials since browsers reject the pair.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			allowed = append(allowed, origin)
		}
	}
	if len(allowed) == 0 {
		allowed = []string{"http://localhost:3000"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", IdempotencyKeyHeader, responses.RequestIDHeader},
		ExposedHeaders: []string{responses.RequestIDHeader, IdempotencyReplayedHeader},

		AllowCredentials: !slices.Contains(allowed, "*"),
		MaxAge:           300,
	})
}
