package matching

import (
	"context"
	"time"

	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
)

// UserReader reads user attributes owned by the user-management service
type UserReader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	// ListCandidates returns up to limit users other than excludeID
	ListCandidates(ctx context.Context, excludeID uuid.UUID, limit int) ([]*models.User, error)
}

// PreferenceStore persists preference profiles, one per user
type PreferenceStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.PreferenceProfile, error)
	ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*models.PreferenceProfile, error)
	// CreateIfAbsent inserts profile unless one exists and returns the stored profile
	CreateIfAbsent(ctx context.Context, profile *models.PreferenceProfile) (*models.PreferenceProfile, error)
	Update(ctx context.Context, profile *models.PreferenceProfile) error
}

// InteractionLedger is the append-only event log
type InteractionLedger interface {
	Append(ctx context.Context, event *models.InteractionEvent) error
	// ListInvolving returns events where userID is source or target, created at or after since
	ListInvolving(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.InteractionEvent, error)
}

// MatchStore persists matches. Status changes go through UpdateStatus only.
type MatchStore interface {
	// Create inserts m in PENDING, failing with a DuplicateMatchError when a
	// pending match exists for the unordered pair
	Create(ctx context.Context, m *models.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	FindPending(ctx context.Context, a, b uuid.UUID) (*models.Match, error)
	ListByUser(ctx context.Context, userID uuid.UUID, statuses []models.MatchStatus) ([]*models.Match, error)
	// PairedUserIDs returns counterparts of userID in matches with any of statuses
	PairedUserIDs(ctx context.Context, userID uuid.UUID, statuses []models.MatchStatus) ([]uuid.UUID, error)
	CountByStatus(ctx context.Context, userID uuid.UUID, status models.MatchStatus) (int, error)
	// UpdateStatus moves the match from -> to only if its stored status is still from,
	// appending events in the same unit of work. It returns false when the status changed underneath.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.MatchStatus, update models.StatusUpdate, events []*models.InteractionEvent) (bool, error)
}

// FeedbackStore persists match feedback
type FeedbackStore interface {
	// UpsertAndRecalibrate stores fb keyed by (match, user), appends event and, when
	// both participants have submitted, overwrites the match score with the realized
	// score. All of it happens atomically with respect to other submissions for the match.
	UpsertAndRecalibrate(ctx context.Context, fb *models.MatchFeedback, event *models.InteractionEvent) (*models.FeedbackResult, error)
	ListByMatch(ctx context.Context, matchID uuid.UUID) ([]*models.MatchFeedback, error)
}

// Notifier is informed of accepted and completed matches. Calls are fire-and-forget.
type Notifier interface {
	MatchAccepted(ctx context.Context, m *models.Match) error
	MatchCompleted(ctx context.Context, m *models.Match) error
}

// NopNotifier drops every notification
type NopNotifier struct{}

func (NopNotifier) MatchAccepted(context.Context, *models.Match) error  { return nil }
func (NopNotifier) MatchCompleted(context.Context, *models.Match) error { return nil }
