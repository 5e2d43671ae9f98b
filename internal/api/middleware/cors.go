package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/palaska/tasks-api/internal/config"
)

// CORS applies the cross-origin policy: only the configured origins, the API's
// methods and the two request headers clients need.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           cfg.MaxAgeSeconds,
	})
}
