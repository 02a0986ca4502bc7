package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// CORS allows the configured origins with credentials. In dev, or when the
// list contains "*", every origin is allowed but cookies are not.
func CORS(env string, origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	if env == "dev" || slices.Contains(origins, "*") {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}
	return cors.Handler(opts)
}
