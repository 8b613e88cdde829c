package server

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// CORSMiddleware allows the browser UI at origins to call the API. A "*"
// entry allows any origin without credentials.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	})
}
