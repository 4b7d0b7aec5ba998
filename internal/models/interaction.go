package models

import (
	"time"

	"github.com/google/uuid"
)

// InteractionType is the kind of signal recorded in the interaction ledger
type InteractionType string

const (
	InteractionProfileView      InteractionType = "PROFILE_VIEW"
	InteractionMatchAccepted    InteractionType = "MATCH_ACCEPTED"
	InteractionMatchRejected    InteractionType = "MATCH_REJECTED"
	InteractionMessageSent      InteractionType = "MESSAGE_SENT"
	InteractionMeetingCompleted InteractionType = "MEETING_COMPLETED"
	InteractionSkillSearch      InteractionType = "SKILL_SEARCH"
	InteractionInterestSearch   InteractionType = "INTEREST_SEARCH"
	InteractionLoungeJoined     InteractionType = "LOUNGE_JOINED"
	InteractionFeedbackGiven    InteractionType = "FEEDBACK_GIVEN"
)

var interactionWeights = map[InteractionType]float64{
	InteractionProfileView:      0.5,
	InteractionMatchAccepted:    2.0,
	InteractionMatchRejected:    -1.0,
	InteractionMessageSent:      1.0,
	InteractionMeetingCompleted: 3.0,
	InteractionSkillSearch:      0.3,
	InteractionInterestSearch:   0.3,
	InteractionLoungeJoined:     0.5,
	InteractionFeedbackGiven:    1.5,
}

// Valid reports whether t is a known interaction type
func (t InteractionType) Valid() bool {
	_, ok := interactionWeights[t]
	return ok
}

// Weight returns the signed contribution of an event of this type
func (t InteractionType) Weight() float64 {
	return interactionWeights[t]
}

// InteractionEvent is an immutable ledger entry. Events are only ever appended.
type InteractionEvent struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	TargetUserID *uuid.UUID      `json:"target_user_id,omitempty"`
	Type         InteractionType `json:"type"`
	Value        *string         `json:"value,omitempty"`
	Weight       float64         `json:"weight"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewInteractionEvent builds an event whose weight is derived from its type
func NewInteractionEvent(userID uuid.UUID, target *uuid.UUID, typ InteractionType, value *string) *InteractionEvent {
	return &InteractionEvent{
		ID:           uuid.New(),
		UserID:       userID,
		TargetUserID: target,
		Type:         typ,
		Value:        value,
		Weight:       typ.Weight(),
		CreatedAt:    time.Now().UTC(),
	}
}

// Involves reports whether the event was exchanged between a and b in either direction
func (e *InteractionEvent) Involves(a, b uuid.UUID) bool {
	if e.TargetUserID == nil {
		return false
	}
	t := *e.TargetUserID
	return (e.UserID == a && t == b) || (e.UserID == b && t == a)
}
