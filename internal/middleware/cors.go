package middleware

import (
	"net/http"

	"github.com/benvon/coffee-match/internal/request"
	"github.com/rs/cors"
)

// DefaultAllowedOrigin is used when no origins are configured
const DefaultAllowedOrigin = "http://localhost:3000"

// CORS returns rs/cors middleware for the match API. Preflights are answered without reaching next.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{DefaultAllowedOrigin}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", request.ActorHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return c.Handler
}
