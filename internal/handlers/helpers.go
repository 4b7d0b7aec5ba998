package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/coffee-match/internal/logger"
	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxErrorMessageLength bounds error messages returned to clients
const maxErrorMessageLength = 200

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSONError sends an error JSON response with a truncated, control-character free message
func respondJSONError(w http.ResponseWriter, r *http.Request, status int, errorType, message string) {
	middleware.WriteError(w, r, status, errorType, logger.SanitizeString(message, maxErrorMessageLength), nil)
}

// respondEngineError maps engine errors onto HTTP statuses. Unknown errors are logged and
// reported as 500 without detail.
func respondEngineError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		notFound     *matching.NotFoundError
		duplicate    *matching.DuplicateMatchError
		unauthorized *matching.NotAuthorizedError
		invalid      *matching.InvalidStateError
		validation   *matching.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		respondJSONError(w, r, http.StatusNotFound, "Not Found", notFound.Error())
	case errors.As(err, &duplicate):
		respondJSONError(w, r, http.StatusConflict, "Duplicate Match", duplicate.Error())
	case errors.As(err, &unauthorized):
		respondJSONError(w, r, http.StatusForbidden, "Forbidden", unauthorized.Error())
	case errors.As(err, &invalid):
		respondJSONError(w, r, http.StatusConflict, "Invalid State", invalid.Error())
	case errors.As(err, &validation):
		respondJSONError(w, r, http.StatusBadRequest, "Bad Request", validation.Error())
	default:
		log.Error("request_failed",
			zap.String("method", r.Method),
			zap.String("path", logger.SanitizePath(r.URL.Path)),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, r, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
	}
}

// decodeJSON decodes the request body into dst, rejecting unknown fields
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &matching.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

// pathUUID parses the named mux path variable as a UUID
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &matching.ValidationError{Field: name, Reason: fmt.Sprintf("%q is not a valid id", raw)}
	}
	return id, nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &matching.ValidationError{Field: name, Reason: "must be an integer"}
	}
	return v, nil
}
