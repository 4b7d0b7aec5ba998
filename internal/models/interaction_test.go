package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestInteractionType_Weight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  InteractionType
		want float64
	}{
		{InteractionProfileView, 0.5},
		{InteractionMatchAccepted, 2.0},
		{InteractionMatchRejected, -1.0},
		{InteractionMessageSent, 1.0},
		{InteractionMeetingCompleted, 3.0},
		{InteractionSkillSearch, 0.3},
		{InteractionInterestSearch, 0.3},
		{InteractionLoungeJoined, 0.5},
		{InteractionFeedbackGiven, 1.5},
	}

	for _, tt := range tests {
		if !tt.typ.Valid() {
			t.Errorf("%s should be valid", tt.typ)
		}
		if got := tt.typ.Weight(); got != tt.want {
			t.Errorf("%s.Weight() = %v, want %v", tt.typ, got, tt.want)
		}
	}

	unknown := InteractionType("POKE")
	if unknown.Valid() || unknown.Weight() != 0 {
		t.Error("unknown interaction type should be invalid with zero weight")
	}
}

func TestNewInteractionEvent(t *testing.T) {
	t.Parallel()

	user, target := uuid.New(), uuid.New()
	e := NewInteractionEvent(user, &target, InteractionMatchRejected, nil)

	if e.ID == uuid.Nil {
		t.Error("expected event ID to be set")
	}
	if e.Weight != -1.0 {
		t.Errorf("Weight = %v, want -1", e.Weight)
	}
	if e.CreatedAt.IsZero() || e.CreatedAt.Location().String() != "UTC" {
		t.Errorf("CreatedAt should be set in UTC, got %v", e.CreatedAt)
	}
}

func TestInteractionEvent_Involves(t *testing.T) {
	t.Parallel()

	a, b, c := uuid.New(), uuid.New(), uuid.New()

	forward := &InteractionEvent{UserID: a, TargetUserID: &b}
	if !forward.Involves(a, b) || !forward.Involves(b, a) {
		t.Error("event should involve the pair in either order")
	}
	if forward.Involves(a, c) {
		t.Error("event should not involve an unrelated user")
	}

	untargeted := &InteractionEvent{UserID: a}
	if untargeted.Involves(a, b) {
		t.Error("untargeted event involves nobody")
	}
}
