package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the storefront to call the API from the configured origins.
// Credentials are allowed so the admin session cookie travels cross-origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler
}
