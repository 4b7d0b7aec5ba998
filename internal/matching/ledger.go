package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DiversityWindow is how far back the diversity factor looks at a user's own events
const DiversityWindow = 30 * 24 * time.Hour

// Ledger records and reads interaction events
type Ledger struct {
	store  InteractionLedger
	logger *zap.Logger
}

// NewLedger wraps an interaction store
func NewLedger(store InteractionLedger, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, logger: logger}
}

// Record appends an event whose weight is derived from typ
func (l *Ledger) Record(ctx context.Context, userID uuid.UUID, target *uuid.UUID, typ models.InteractionType, value *string) (*models.InteractionEvent, error) {
	if userID == uuid.Nil {
		return nil, &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if !typ.Valid() {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown interaction type %q", typ)}
	}

	event := models.NewInteractionEvent(userID, target, typ, value)
	if err := l.store.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to append interaction event: %w", err)
	}

	l.logger.Debug("interaction_recorded",
		zap.String("user_id", userID.String()),
		zap.String("type", string(typ)),
		zap.Float64("weight", event.Weight),
	)
	return event, nil
}

// UserHistory is a user's ledger split into what the scorer needs per candidate
type UserHistory struct {
	userID uuid.UUID
	pair   map[uuid.UUID][]*models.InteractionEvent
	recent []*models.InteractionEvent
}

// LoadHistory reads every event involving userID and indexes it by counterpart
func (l *Ledger) LoadHistory(ctx context.Context, userID uuid.UUID, now time.Time) (*UserHistory, error) {
	events, err := l.store.ListInvolving(ctx, userID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to list interaction events: %w", err)
	}
	return NewUserHistory(userID, events, now), nil
}

// NewUserHistory indexes events for userID. Events inside DiversityWindow
// that userID authored feed the diversity factor.
func NewUserHistory(userID uuid.UUID, events []*models.InteractionEvent, now time.Time) *UserHistory {
	h := &UserHistory{
		userID: userID,
		pair:   make(map[uuid.UUID][]*models.InteractionEvent),
	}
	cutoff := now.Add(-DiversityWindow)
	for _, e := range events {
		if e.TargetUserID != nil {
			switch userID {
			case e.UserID:
				h.pair[*e.TargetUserID] = append(h.pair[*e.TargetUserID], e)
			case *e.TargetUserID:
				h.pair[e.UserID] = append(h.pair[e.UserID], e)
			}
		}
		if e.UserID == userID && !e.CreatedAt.Before(cutoff) {
			h.recent = append(h.recent, e)
		}
	}
	return h
}

// For returns the scorer history for one candidate
func (h *UserHistory) For(candidateID uuid.UUID) History {
	return History{
		PairEvents:       h.pair[candidateID],
		RecentUserEvents: h.recent,
	}
}
