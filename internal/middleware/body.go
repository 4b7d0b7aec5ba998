package middleware

import (
	"net/http"
	"strings"
)

// DefaultMaxBodySize bounds request bodies; match and feedback payloads are small
const DefaultMaxBodySize int64 = 64 << 10

// JSONBody requires application/json on requests with bodies and caps their size
func JSONBody(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
				if r.ContentLength > 0 || r.Header.Get("Content-Type") != "" {
					if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
						WriteError(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Content-Type must be application/json", nil)
						return
					}
				}
				if r.ContentLength > maxBytes {
					WriteError(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "request body too large", nil)
					return
				}
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders sets the headers a JSON-only API needs
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'")
		next.ServeHTTP(w, r)
	})
}
