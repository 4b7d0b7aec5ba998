package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestMatchStatus_CanTransitionTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from MatchStatus
		to   MatchStatus
		want bool
	}{
		{MatchStatusPending, MatchStatusAccepted, true},
		{MatchStatusPending, MatchStatusRejected, true},
		{MatchStatusPending, MatchStatusCancelled, true},
		{MatchStatusPending, MatchStatusScheduled, false},
		{MatchStatusAccepted, MatchStatusScheduled, true},
		{MatchStatusAccepted, MatchStatusCancelled, true},
		{MatchStatusAccepted, MatchStatusInProgress, false},
		{MatchStatusScheduled, MatchStatusInProgress, true},
		{MatchStatusScheduled, MatchStatusCancelled, true},
		{MatchStatusInProgress, MatchStatusCompleted, true},
		{MatchStatusInProgress, MatchStatusCancelled, false},
		{MatchStatusCompleted, MatchStatusCancelled, false},
		{MatchStatusRejected, MatchStatusAccepted, false},
		{MatchStatusCancelled, MatchStatusPending, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			t.Parallel()

			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	terminal := map[MatchStatus]bool{
		MatchStatusPending:    false,
		MatchStatusAccepted:   false,
		MatchStatusScheduled:  false,
		MatchStatusInProgress: false,
		MatchStatusRejected:   true,
		MatchStatusCompleted:  true,
		MatchStatusCancelled:  true,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
		if !status.Valid() {
			t.Errorf("%s should be valid", status)
		}
		if want && len(matchTransitions[status]) != 0 {
			t.Errorf("terminal status %s has outgoing transitions", status)
		}
	}
	if MatchStatus("ARCHIVED").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestMatchType_Valid(t *testing.T) {
	t.Parallel()

	for _, mt := range []MatchType{MatchTypeCoffeeChat, MatchTypeMentorship, MatchTypeNetworking, MatchTypeTopicDiscussion} {
		if !mt.Valid() {
			t.Errorf("%s should be valid", mt)
		}
	}
	if MatchType("coffee_chat").Valid() {
		t.Error("match types are case sensitive")
	}
}

func TestMatch_Participants(t *testing.T) {
	t.Parallel()

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	m := &Match{User1ID: a, User2ID: b}

	if !m.HasParticipant(a) || !m.HasParticipant(b) || m.HasParticipant(c) {
		t.Error("HasParticipant mismatch")
	}
	if other, ok := m.OtherParticipant(a); !ok || other != b {
		t.Errorf("OtherParticipant(a) = %v, %v", other, ok)
	}
	if other, ok := m.OtherParticipant(b); !ok || other != a {
		t.Errorf("OtherParticipant(b) = %v, %v", other, ok)
	}
	if _, ok := m.OtherParticipant(c); ok {
		t.Error("outsider should have no counterpart")
	}
	if !m.SamePair(b, a) || m.SamePair(a, c) {
		t.Error("SamePair mismatch")
	}
}
