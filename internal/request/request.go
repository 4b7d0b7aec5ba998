package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const actorContextKey contextKey = "actor"

// ActorHeader carries the authenticated caller's user id, set by the upstream gateway
const ActorHeader = "X-User-ID"

// ActorContextKey returns the context key used for the actor. Exposed for tests that inject non-actor values.
func ActorContextKey() contextKey { return actorContextKey }

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// ParseActor reads the actor id from the X-User-ID header
func ParseActor(r *http.Request) (uuid.UUID, bool) {
	raw := strings.TrimSpace(r.Header.Get(ActorHeader))
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithActor returns a context with the actor id attached.
func WithActor(ctx context.Context, actor uuid.UUID) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext returns the actor id from the request context, or false if missing or wrong type.
func ActorFromContext(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(actorContextKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
