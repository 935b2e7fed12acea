package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// CORS lets storefronts call the shop API from the configured origins. The
// session and replay headers are exposed so a guest client can keep its
// session token and detect replayed mutations.
func CORS(origins []string, channelHeader, sessionHeader string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", idempotencyHeader, channelHeader, sessionHeader},
		ExposedHeaders: []string{requestIDHeader, sessionHeader, replayHeader},
		// browsers refuse credentialed responses for a wildcard origin
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           600,
	}).Handler
}
