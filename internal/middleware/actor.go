package middleware

import (
	"net/http"

	"github.com/benvon/coffee-match/internal/request"
	"go.uber.org/zap"
)

// RequireActor rejects requests without a valid X-User-ID and stores the actor in the request context.
// Authentication happens upstream; this only trusts what the gateway forwarded.
func RequireActor(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := request.ParseActor(r)
			if !ok {
				WriteError(w, r, http.StatusUnauthorized, "Unauthorized", "missing or invalid "+request.ActorHeader+" header", logger)
				return
			}
			next.ServeHTTP(w, r.WithContext(request.WithActor(r.Context(), actor)))
		})
	}
}
