package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchType is the purpose of a pairing
type MatchType string

const (
	MatchTypeCoffeeChat      MatchType = "COFFEE_CHAT"
	MatchTypeMentorship      MatchType = "MENTORSHIP"
	MatchTypeNetworking      MatchType = "NETWORKING"
	MatchTypeTopicDiscussion MatchType = "TOPIC_DISCUSSION"
)

// Valid reports whether t is a known match type
func (t MatchType) Valid() bool {
	switch t {
	case MatchTypeCoffeeChat, MatchTypeMentorship, MatchTypeNetworking, MatchTypeTopicDiscussion:
		return true
	}
	return false
}

// MatchStatus is a state of the match lifecycle
type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "PENDING"
	MatchStatusAccepted   MatchStatus = "ACCEPTED"
	MatchStatusRejected   MatchStatus = "REJECTED"
	MatchStatusScheduled  MatchStatus = "SCHEDULED"
	MatchStatusInProgress MatchStatus = "IN_PROGRESS"
	MatchStatusCompleted  MatchStatus = "COMPLETED"
	MatchStatusCancelled  MatchStatus = "CANCELLED"
)

var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusPending:    {MatchStatusAccepted, MatchStatusRejected, MatchStatusCancelled},
	MatchStatusAccepted:   {MatchStatusScheduled, MatchStatusCancelled},
	MatchStatusScheduled:  {MatchStatusInProgress, MatchStatusCancelled},
	MatchStatusInProgress: {MatchStatusCompleted},
}

// Valid reports whether s is a known status
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusRejected, MatchStatusScheduled,
		MatchStatusInProgress, MatchStatusCompleted, MatchStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusRejected || s == MatchStatusCompleted || s == MatchStatusCancelled
}

// CanTransitionTo reports whether the lifecycle allows s -> next
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PairedStatuses are the statuses that mark two users as already matched
var PairedStatuses = []MatchStatus{
	MatchStatusPending,
	MatchStatusAccepted,
	MatchStatusScheduled,
	MatchStatusInProgress,
	MatchStatusCompleted,
}

// Match is one proposed or active pairing between two users
type Match struct {
	ID                 uuid.UUID   `json:"id"`
	User1ID            uuid.UUID   `json:"user1_id"`
	User2ID            uuid.UUID   `json:"user2_id"`
	MatchType          MatchType   `json:"match_type"`
	Status             MatchStatus `json:"status"`
	CompatibilityScore *float64    `json:"compatibility_score,omitempty"`
	MatchReason        *string     `json:"match_reason,omitempty"`
	ScheduledTime      *time.Time  `json:"scheduled_time,omitempty"`
	IsActive           bool        `json:"is_active"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// HasParticipant reports whether userID is one side of the match
func (m *Match) HasParticipant(userID uuid.UUID) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// OtherParticipant returns the counterpart of userID
func (m *Match) OtherParticipant(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case m.User1ID:
		return m.User2ID, true
	case m.User2ID:
		return m.User1ID, true
	}
	return uuid.Nil, false
}

// SamePair reports whether the match pairs a and b in any order
func (m *Match) SamePair(a, b uuid.UUID) bool {
	return (m.User1ID == a && m.User2ID == b) || (m.User1ID == b && m.User2ID == a)
}

// StatusUpdate carries the column changes applied together with a status transition
type StatusUpdate struct {
	ScheduledTime *time.Time
	Deactivate    bool
}
