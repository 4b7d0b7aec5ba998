package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		origin         string
		requestHeaders string
		wantAllowed    bool
		wantNext       bool
	}{
		{name: "allowed origin", method: http.MethodGet, origin: "https://app.example", wantAllowed: true, wantNext: true},
		{name: "disallowed origin", method: http.MethodGet, origin: "https://evil.example", wantAllowed: false, wantNext: true},
		{name: "preflight with actor header", method: http.MethodOptions, origin: "https://app.example", requestHeaders: "x-user-id", wantAllowed: true},
		{name: "preflight with allowed headers", method: http.MethodOptions, origin: "https://app.example", requestHeaders: "content-type,x-user-id", wantAllowed: true},
		{name: "preflight with unlisted header", method: http.MethodOptions, origin: "https://app.example", requestHeaders: "x-api-key", wantAllowed: false},
		{name: "preflight from disallowed origin", method: http.MethodOptions, origin: "https://evil.example", requestHeaders: "x-user-id", wantAllowed: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, "/api/v1/matches", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
				// browsers send the header list lowercased
				req.Header.Set("Access-Control-Request-Headers", tt.requestHeaders)
			}
			w := httptest.NewRecorder()

			CORS([]string{"https://app.example"})(handler).ServeHTTP(w, req)

			got := w.Header().Get("Access-Control-Allow-Origin")
			if (got == tt.origin) != tt.wantAllowed {
				t.Errorf("Access-Control-Allow-Origin = %q, allowed want %v", got, tt.wantAllowed)
			}
			if called != tt.wantNext {
				t.Errorf("next called = %v, want %v", called, tt.wantNext)
			}
		})
	}
}
