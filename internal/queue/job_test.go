package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewMatchNotificationJob(t *testing.T) {
	t.Parallel()

	matchID, u1, u2 := uuid.New(), uuid.New(), uuid.New()
	job := NewMatchNotificationJob(EventMatchAccepted, matchID, u1, u2)

	if job.ID == uuid.Nil {
		t.Error("Expected job ID to be set")
	}
	if job.Type != JobTypeMatchNotification {
		t.Errorf("Expected job type %s, got %s", JobTypeMatchNotification, job.Type)
	}
	if job.MatchID == nil || *job.MatchID != matchID {
		t.Errorf("Expected match ID %s, got %v", matchID, job.MatchID)
	}
	if len(job.Recipients) != 2 || job.Recipients[0] != u1 || job.Recipients[1] != u2 {
		t.Errorf("Expected both participants as recipients, got %v", job.Recipients)
	}
	if job.MaxRetries != DefaultMaxRetries {
		t.Errorf("Expected max retries %d, got %d", DefaultMaxRetries, job.MaxRetries)
	}

	body, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("Failed to marshal job: %v", err)
	}
	var decoded Job
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal job: %v", err)
	}
	if decoded.Event != EventMatchAccepted {
		t.Errorf("Expected event %s after decode, got %s", EventMatchAccepted, decoded.Event)
	}
}

func TestNewProfileRefreshJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	job := NewProfileRefreshJob(userID)

	if job.Type != JobTypeProfileRefresh {
		t.Errorf("Expected job type %s, got %s", JobTypeProfileRefresh, job.Type)
	}
	if job.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, job.UserID)
	}
	if job.MatchID != nil {
		t.Error("Expected no match ID on a refresh job")
	}
}

func TestJob_ShouldProcess(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		job  *Job
		want bool
	}{
		{name: "no time constraints", job: &Job{}, want: true},
		{name: "not before in the past", job: &Job{NotBefore: &past}, want: true},
		{name: "not before in the future", job: &Job{NotBefore: &future}, want: false},
		{name: "not after in the past", job: &Job{NotAfter: &past}, want: false},
		{name: "inside window", job: &Job{NotBefore: &past, NotAfter: &future}, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.job.ShouldProcess(); got != tt.want {
				t.Errorf("ShouldProcess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_IsExpired(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Minute)

	if (&Job{}).IsExpired() {
		t.Error("Job without NotAfter should never expire")
	}
	if !(&Job{NotAfter: &past}).IsExpired() {
		t.Error("Expected job with past NotAfter to be expired")
	}
	if (&Job{NotAfter: &future}).IsExpired() {
		t.Error("Expected job with future NotAfter not to be expired")
	}
}

func TestJob_Retry(t *testing.T) {
	t.Parallel()

	job := NewProfileRefreshJob(uuid.New())

	tests := []struct {
		retryCount int
		minDelay   time.Duration
	}{
		{retryCount: 0, minDelay: time.Second},
		{retryCount: 1, minDelay: 2 * time.Second},
		{retryCount: 2, minDelay: 4 * time.Second},
	}

	for _, tt := range tests {
		job.RetryCount = tt.retryCount
		before := time.Now()
		next := job.Retry(time.Second)

		if next.RetryCount != tt.retryCount+1 {
			t.Errorf("RetryCount = %d, want %d", next.RetryCount, tt.retryCount+1)
		}
		if next.NotBefore == nil || next.NotBefore.Before(before.Add(tt.minDelay)) {
			t.Errorf("retry %d: NotBefore %v earlier than %v", tt.retryCount, next.NotBefore, tt.minDelay)
		}
		if next.ID != job.ID {
			t.Error("Expected retry to keep the job ID")
		}
	}

	job.RetryCount = job.MaxRetries
	if job.CanRetry() {
		t.Error("Expected CanRetry false once MaxRetries is reached")
	}
}
