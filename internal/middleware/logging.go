package middleware

import (
	"net/http"
	"time"

	logpkg "github.com/benvon/coffee-match/internal/logger"
	"github.com/benvon/coffee-match/internal/request"
	"go.uber.org/zap"
)

// Logging logs one line per request. Rejected callers (401/403) are logged at warn as security events.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.Int("status_code", wrapped.statusCode),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			if actor, ok := request.ParseActor(r); ok {
				fields = append(fields, zap.String("actor_id", logpkg.SanitizeUserID(actor.String())))
			}

			switch wrapped.statusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				fields = append(fields, zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)))
				logger.Warn("security_event", fields...)
			default:
				logger.Info("http_request", fields...)
			}
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
