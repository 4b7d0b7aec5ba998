package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/middleware"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSON(w, http.StatusCreated, map[string]string{"message": "hello"})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if success, ok := body["success"].(bool); !ok || !success {
		t.Error("Expected success to be true")
	}
	if _, ok := body["timestamp"].(string); !ok {
		t.Error("Expected timestamp to be present")
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["message"] != "hello" {
		t.Errorf("Expected data.message 'hello', got %v", body["data"])
	}
}

func TestRespondJSONError_Truncates(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/matches/x", nil)
	respondJSONError(w, r, http.StatusBadRequest, "Bad Request", strings.Repeat("a", 500))

	var body middleware.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(body.Message) != maxErrorMessageLength+len("...") {
		t.Errorf("Expected message truncated to %d chars, got %d", maxErrorMessageLength, len(body.Message))
	}
	if body.Path != "/api/v1/matches/x" {
		t.Errorf("Expected path '/api/v1/matches/x', got '%s'", body.Path)
	}
}

func TestRespondEngineError(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "not found", err: matching.NewNotFound("match", id), wantStatus: http.StatusNotFound, wantError: "Not Found"},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", matching.NewNotFound("user", id)), wantStatus: http.StatusNotFound, wantError: "Not Found"},
		{name: "duplicate", err: &matching.DuplicateMatchError{User1ID: id, User2ID: uuid.New()}, wantStatus: http.StatusConflict, wantError: "Duplicate Match"},
		{name: "not authorized", err: &matching.NotAuthorizedError{MatchID: id, Actor: uuid.New(), Action: "respond to"}, wantStatus: http.StatusForbidden, wantError: "Forbidden"},
		{name: "invalid state", err: &matching.InvalidStateError{MatchID: id, From: models.MatchStatusCompleted, To: models.MatchStatusCancelled}, wantStatus: http.StatusConflict, wantError: "Invalid State"},
		{name: "validation", err: &matching.ValidationError{Field: "quality_rating", Reason: "must be at most 5"}, wantStatus: http.StatusBadRequest, wantError: "Bad Request"},
		{name: "infrastructure", err: errors.New("pq: connection reset by peer"), wantStatus: http.StatusInternalServerError, wantError: "Internal Server Error"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondEngineError(w, httptest.NewRequest("POST", "/x", nil), nopLogger(), tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var body middleware.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body.Error != tt.wantError {
				t.Errorf("Expected error %q, got %q", tt.wantError, body.Error)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(body.Message, "pq:") {
				t.Errorf("Internal error detail leaked: %q", body.Message)
			}
		})
	}
}
