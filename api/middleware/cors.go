package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the storefront and admin dashboard origins.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000",
			"https://cadoobag.com",
			"https://www.cadoobag.com",
			"https://admin.cadoobag.com",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", "X-Callback-Signature"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
