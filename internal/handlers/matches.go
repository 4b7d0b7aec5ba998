package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/benvon/coffee-match/internal/request"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MatchService is the engine surface the HTTP adapter drives
type MatchService interface {
	FindMatches(ctx context.Context, userID uuid.UUID, count int) ([]matching.ScoreResult, error)
	Request(ctx context.Context, req matching.MatchRequest) (*models.Match, error)
	Respond(ctx context.Context, matchID, responder uuid.UUID, decision models.MatchStatus) (*models.Match, error)
	Schedule(ctx context.Context, matchID, actor uuid.UUID, at time.Time) (*models.Match, error)
	Start(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
	Complete(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
	Cancel(ctx context.Context, matchID uuid.UUID, actor *uuid.UUID, reason string) (*models.Match, error)
	GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
	ListMatches(ctx context.Context, userID uuid.UUID, statuses ...models.MatchStatus) ([]*models.Match, error)
	CompletedCount(ctx context.Context, userID uuid.UUID) (int, error)
	SubmitFeedback(ctx context.Context, matchID, userID uuid.UUID, in matching.FeedbackInput) (*models.FeedbackResult, error)
	ListFeedback(ctx context.Context, matchID uuid.UUID) ([]*models.MatchFeedback, error)
}

// PreferenceUpdater applies stated preference changes
type PreferenceUpdater interface {
	Update(ctx context.Context, userID uuid.UUID, upd matching.PreferenceUpdate) (*models.PreferenceProfile, error)
}

// InteractionRecorder appends interaction events to the ledger
type InteractionRecorder interface {
	Record(ctx context.Context, userID uuid.UUID, target *uuid.UUID, typ models.InteractionType, value *string) (*models.InteractionEvent, error)
}

var _ MatchService = (*matching.Engine)(nil)

// MatchHandler exposes the matching engine over HTTP. Every route expects the
// actor id in the request context (see middleware.RequireActor).
type MatchHandler struct {
	engine       MatchService
	preferences  PreferenceUpdater
	interactions InteractionRecorder
	logger       *zap.Logger
}

// NewMatchHandler creates a match handler
func NewMatchHandler(engine MatchService, preferences PreferenceUpdater, interactions InteractionRecorder, logger *zap.Logger) *MatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchHandler{engine: engine, preferences: preferences, interactions: interactions, logger: logger}
}

// RegisterRoutes registers match routes on the given API router (e.g. /api/v1)
func (h *MatchHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/users/{id}/candidates", h.FindCandidates).Methods("GET")
	r.HandleFunc("/users/{id}/matches", h.ListMatches).Methods("GET")
	r.HandleFunc("/users/{id}/stats", h.Stats).Methods("GET")
	r.HandleFunc("/users/{id}/preferences", h.UpdatePreferences).Methods("PATCH")
	r.HandleFunc("/users/{id}/interactions", h.RecordInteraction).Methods("POST")

	r.HandleFunc("/matches", h.CreateMatch).Methods("POST")
	r.HandleFunc("/matches/{id}", h.GetMatch).Methods("GET")
	r.HandleFunc("/matches/{id}/respond", h.Respond).Methods("POST")
	r.HandleFunc("/matches/{id}/schedule", h.Schedule).Methods("POST")
	r.HandleFunc("/matches/{id}/start", h.Start).Methods("POST")
	r.HandleFunc("/matches/{id}/complete", h.Complete).Methods("POST")
	r.HandleFunc("/matches/{id}/cancel", h.Cancel).Methods("POST")
	r.HandleFunc("/matches/{id}/feedback", h.SubmitFeedback).Methods("POST")
	r.HandleFunc("/matches/{id}/feedback", h.ListFeedback).Methods("GET")
}

// CreateMatchRequest is the body of POST /matches
type CreateMatchRequest struct {
	TargetID  uuid.UUID        `json:"target_id"`
	MatchType models.MatchType `json:"match_type"`
	Reason    *string          `json:"reason,omitempty"`
}

// RespondRequest is the body of POST /matches/{id}/respond
type RespondRequest struct {
	Decision models.MatchStatus `json:"decision"`
}

// ScheduleRequest is the body of POST /matches/{id}/schedule
type ScheduleRequest struct {
	ScheduledTime time.Time `json:"scheduled_time"`
}

// CancelRequest is the optional body of POST /matches/{id}/cancel
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RecordInteractionRequest is the body of POST /users/{id}/interactions
type RecordInteractionRequest struct {
	TargetUserID *uuid.UUID             `json:"target_user_id,omitempty"`
	Type         models.InteractionType `json:"interaction_type"`
	Value        *string                `json:"value,omitempty"`
}

// StatsResponse is the body of GET /users/{id}/stats
type StatsResponse struct {
	CompletedMatches int `json:"completed_matches"`
}

// self resolves the {id} path user and requires it to be the actor
func (h *MatchHandler) self(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	actor, ok := request.ActorFromContext(r)
	if !ok {
		respondJSONError(w, r, http.StatusUnauthorized, "Unauthorized", "actor not found in context")
		return uuid.Nil, false
	}
	userID, err := pathUUID(r, "id")
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return uuid.Nil, false
	}
	if userID != actor {
		respondJSONError(w, r, http.StatusForbidden, "Forbidden", "users may only act on their own matches")
		return uuid.Nil, false
	}
	return userID, true
}

// matchActor resolves the {id} path match and the actor
func (h *MatchHandler) matchActor(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	actor, ok := request.ActorFromContext(r)
	if !ok {
		respondJSONError(w, r, http.StatusUnauthorized, "Unauthorized", "actor not found in context")
		return uuid.Nil, uuid.Nil, false
	}
	matchID, err := pathUUID(r, "id")
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return uuid.Nil, uuid.Nil, false
	}
	return matchID, actor, true
}

// participant loads the match and requires the actor to be one of its users
func (h *MatchHandler) participant(w http.ResponseWriter, r *http.Request, matchID, actor uuid.UUID) (*models.Match, bool) {
	m, err := h.engine.GetMatch(r.Context(), matchID)
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return nil, false
	}
	if !m.HasParticipant(actor) {
		respondEngineError(w, r, h.logger, &matching.NotAuthorizedError{MatchID: matchID, Actor: actor, Action: "access"})
		return nil, false
	}
	return m, true
}

// FindCandidates returns the actor's ranked candidates. ?count defaults to the engine default.
func (h *MatchHandler) FindCandidates(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.self(w, r)
	if !ok {
		return
	}
	count, err := queryInt(r, "count", 0)
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	results, err := h.engine.FindMatches(r.Context(), userID, count)
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// ListMatches lists the actor's matches. ?status=PENDING,ACCEPTED filters by status.
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.self(w, r)
	if !ok {
		return
	}
	var statuses []models.MatchStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, models.MatchStatus(strings.ToUpper(s)))
			}
		}
	}
	matches, err := h.engine.ListMatches(r.Context(), userID, statuses...)
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	if matches == nil {
		matches = []*models.Match{}
	}
	respondJSON(w, http.StatusOK, matches)
}

// Stats returns the actor's completed match count
func (h *MatchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.self(w, r)
	if !ok {
		return
	}
	n, err := h.engine.CompletedCount(r.Context(), userID)
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, StatsResponse{CompletedMatches: n})
}

// UpdatePreferences applies preference changes and re-derives the actor's vectors
func (h *MatchHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.self(w, r)
	if !ok {
		return
	}
	var upd matching.PreferenceUpdate
	if err := decodeJSON(r, &upd); err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	profile, err := h.preferences.Update(r.Context(), userID, upd)
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// RecordInteraction appends an event on behalf of the actor
func (h *MatchHandler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.self(w, r)
	if !ok {
		return
	}
	var body RecordInteractionRequest
	if err := decodeJSON(r, &body); err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	event, err := h.interactions.Record(r.Context(), userID, body.TargetUserID, body.Type, body.Value)
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

// CreateMatch proposes a match from the actor to target_id
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := request.ActorFromContext(r)
	if !ok {
		respondJSONError(w, r, http.StatusUnauthorized, "Unauthorized", "actor not found in context")
		return
	}
	var body CreateMatchRequest
	if err := decodeJSON(r, &body); err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	m, err := h.engine.Request(r.Context(), matching.MatchRequest{
		InitiatorID: actor,
		TargetID:    body.TargetID,
		MatchType:   body.MatchType,
		Reason:      body.Reason,
	})
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// GetMatch returns a match the actor participates in
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, actor, ok := h.matchActor(w, r)
	if !ok {
		return
	}
	m, ok := h.participant(w, r, matchID, actor)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// Respond accepts or rejects a pending match on behalf of its target
func (h *MatchHandler) Respond(w http.ResponseWriter, r *http.Request) {
	matchID, actor, ok := h.matchActor(w, r)
	if !ok {
		return
	}
	var body RespondRequest
	if err := decodeJSON(r, &body); err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	m, err := h.engine.Respond(r.Context(), matchID, actor, models.MatchStatus(strings.ToUpper(string(body.Decision))))
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// Schedule sets the meeting time of an accepted match
func (h *MatchHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	matchID, actor, ok := h.matchActor(w, r)
	if !ok {
		return
	}
	var body ScheduleRequest
	if err := decodeJSON(r, &body); err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	m, err := h.engine.Schedule(r.Context(), matchID, actor, body.ScheduledTime)
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// Start marks a scheduled meeting as in progress
func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.engine.Start)
}

// Complete marks an in-progress meeting as completed
func (h *MatchHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.engine.Complete)
}

func (h *MatchHandler) advance(w http.ResponseWriter, r *http.Request, step func(context.Context, uuid.UUID) (*models.Match, error)) {
	matchID, actor, ok := h.matchActor(w, r)
	if !ok {
		return
	}
	if _, ok := h.participant(w, r, matchID, actor); !ok {
		return
	}
	m, err := step(r.Context(), matchID)
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// Cancel deactivates a match the actor participates in. The body is optional.
func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	matchID, actor, ok := h.matchActor(w, r)
	if !ok {
		return
	}
	var body CancelRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			respondEngineError(w, r, h.logger, err)
			return
		}
	}
	m, err := h.engine.Cancel(r.Context(), matchID, &actor, body.Reason)
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// SubmitFeedback records the actor's feedback for a completed match
func (h *MatchHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	matchID, actor, ok := h.matchActor(w, r)
	if !ok {
		return
	}
	var body matching.FeedbackInput
	if err := decodeJSON(r, &body); err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	result, err := h.engine.SubmitFeedback(r.Context(), matchID, actor, body)
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// ListFeedback lists feedback on a match the actor participates in
func (h *MatchHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	matchID, actor, ok := h.matchActor(w, r)
	if !ok {
		return
	}
	if _, ok := h.participant(w, r, matchID, actor); !ok {
		return
	}
	feedback, err := h.engine.ListFeedback(r.Context(), matchID)
	if err != nil {
		respondEngineError(w, r, h.logger, err)
		return
	}
	if feedback == nil {
		feedback = []*models.MatchFeedback{}
	}
	respondJSON(w, http.StatusOK, feedback)
}
