package request

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		wantIP  string
	}{
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "", "1.2.3.4"},
		{"x-forwarded-for first", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8 "}, "", "1.2.3.4"},
		{"x-real-ip", map[string]string{"X-Real-IP": "9.9.9.9"}, "", "9.9.9.9"},
		{"remote addr", nil, "10.0.0.1:12345", "10.0.0.1:12345"},
		{"xff over xri", map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "9.9.9.9"}, "", "1.2.3.4"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if tt.remote != "" {
				r.RemoteAddr = tt.remote
			}
			got := ClientIP(r)
			if got != tt.wantIP {
				t.Errorf("ClientIP() = %q, want %q", got, tt.wantIP)
			}
		})
	}
}

func TestParseActor(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	tests := []struct {
		name   string
		header string
		want   uuid.UUID
		wantOK bool
	}{
		{"valid", id.String(), id, true},
		{"padded", "  " + id.String() + " ", id, true},
		{"missing", "", uuid.Nil, false},
		{"malformed", "not-a-uuid", uuid.Nil, false},
		{"nil uuid", uuid.Nil.String(), uuid.Nil, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set(ActorHeader, tt.header)
			}
			got, ok := ParseActor(r)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseActor() = %s, %v; want %s, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestActorFromContext(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	r := httptest.NewRequest("GET", "/", nil).WithContext(WithActor(context.Background(), id))
	got, ok := ActorFromContext(r)
	if !ok || got != id {
		t.Errorf("ActorFromContext() = %s, %v; want %s, true", got, ok, id)
	}
}

func TestActorFromContext_NoActor(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest("GET", "/", nil)
	if _, ok := ActorFromContext(r); ok {
		t.Error("ActorFromContext() ok = true, want false")
	}
}

func TestActorFromContext_WrongType(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), ActorContextKey(), "not an id")
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	if _, ok := ActorFromContext(r); ok {
		t.Error("ActorFromContext() ok = true, want false when wrong type")
	}
}
