package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeMatchNotification tells the notification service about a match transition
	JobTypeMatchNotification JobType = "match_notification"
	// JobTypeProfileRefresh re-derives a user's preference profile from their profile text
	JobTypeProfileRefresh JobType = "profile_refresh"
)

// NotificationEvent names the transition a notification job reports
type NotificationEvent string

const (
	EventMatchAccepted  NotificationEvent = "match_accepted"
	EventMatchCompleted NotificationEvent = "match_completed"
)

// DefaultMaxRetries bounds redelivery of a failing job
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID         `json:"id"`
	Type       JobType           `json:"type"`
	UserID     uuid.UUID         `json:"user_id"`
	MatchID    *uuid.UUID        `json:"match_id,omitempty"`
	Recipients []uuid.UUID       `json:"recipients,omitempty"`
	Event      NotificationEvent `json:"event,omitempty"`
	NotBefore  *time.Time        `json:"not_before,omitempty"` // nil = immediate
	NotAfter   *time.Time        `json:"not_after,omitempty"`  // nil = no expiration
	CreatedAt  time.Time         `json:"created_at"`
	RetryCount int               `json:"retry_count"`
	MaxRetries int               `json:"max_retries"`
}

// NewProfileRefreshJob creates a job that refreshes userID's preference profile
func NewProfileRefreshJob(userID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeProfileRefresh,
		UserID:     userID,
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
}

// NewMatchNotificationJob creates a notification job for a match transition.
// UserID is the match's first participant; both participants are recipients.
func NewMatchNotificationJob(event NotificationEvent, matchID, user1ID, user2ID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeMatchNotification,
		UserID:     user1ID,
		MatchID:    &matchID,
		Recipients: []uuid.UUID{user1ID, user2ID},
		Event:      event,
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// Retry returns a copy of the job scheduled for redelivery after an
// exponential backoff of base * 2^RetryCount.
func (j *Job) Retry(base time.Duration) *Job {
	next := *j
	delay := base << j.RetryCount
	notBefore := time.Now().Add(delay)
	next.NotBefore = &notBefore
	next.RetryCount++
	return &next
}
