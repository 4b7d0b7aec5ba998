package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestRateLimit(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mw, err := RateLimit(client, "2-M")
	if err != nil {
		t.Fatalf("RateLimit() error = %v", err)
	}
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	alice, bob := uuid.NewString(), uuid.NewString()
	send := func(actor string) int {
		req := httptest.NewRequest("GET", "/api/v1/matches/x", nil)
		req.Header.Set("X-User-ID", actor)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send(alice); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := send(alice); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 once the limit is reached, got %d", code)
	}
	if code := send(bob); code != http.StatusOK {
		t.Errorf("Expected another actor to have its own budget, got %d", code)
	}
}

func TestRateLimit_InvalidRate(t *testing.T) {
	t.Parallel()

	if _, err := RateLimit(nil, "lots"); err == nil {
		t.Error("Expected error for malformed rate")
	}
}

func TestRateLimitKey(t *testing.T) {
	t.Parallel()

	id := uuid.NewString()
	withActor := httptest.NewRequest("GET", "/", nil)
	withActor.Header.Set("X-User-ID", id)
	if got := rateLimitKey(withActor); got != "actor:"+id {
		t.Errorf("rateLimitKey() = %q, want actor key", got)
	}

	anonymous := httptest.NewRequest("GET", "/", nil)
	anonymous.RemoteAddr = "10.0.0.1:1234"
	if got := rateLimitKey(anonymous); got != "ip:10.0.0.1:1234" {
		t.Errorf("rateLimitKey() = %q, want ip key", got)
	}
}
