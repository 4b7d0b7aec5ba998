package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/coffee-match/internal/logger"
	"github.com/benvon/coffee-match/internal/metrics"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/benvon/coffee-match/internal/validation"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/benvon/coffee-match/internal/matching"

// MatchRequest is the input of a match request
type MatchRequest struct {
	InitiatorID uuid.UUID        `json:"initiator_id"`
	TargetID    uuid.UUID        `json:"target_id"`
	MatchType   models.MatchType `json:"match_type" validate:"required,match_type"`
	Reason      *string          `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// MatchLifecycle owns every status transition of a match
type MatchLifecycle struct {
	matches  MatchStore
	users    UserReader
	prefs    *PreferenceService
	ledger   *Ledger
	scorer   *Scorer
	notifier Notifier
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time

	// in-flight notifications
	pending sync.WaitGroup
}

// NewMatchLifecycle creates the lifecycle. A nil notifier drops notifications.
func NewMatchLifecycle(matches MatchStore, users UserReader, prefs *PreferenceService, ledger *Ledger, scorer *Scorer, notifier Notifier, logger *zap.Logger) *MatchLifecycle {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchLifecycle{
		matches:  matches,
		users:    users,
		prefs:    prefs,
		ledger:   ledger,
		scorer:   scorer,
		notifier: notifier,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Request proposes a match from initiator to target in PENDING, snapshotting the
// compatibility score at creation time.
func (l *MatchLifecycle) Request(ctx context.Context, req MatchRequest) (*models.Match, error) {
	ctx, span := l.tracer.Start(ctx, "MatchLifecycle.Request")
	defer span.End()

	m, err := l.request(ctx, req)
	result := "created"
	switch {
	case errors.Is(err, ErrDuplicateMatch):
		result = "duplicate"
	case err != nil:
		result = "error"
		span.RecordError(err)
	}
	metrics.MatchRequests.WithLabelValues(result).Inc()
	return m, err
}

func (l *MatchLifecycle) request(ctx context.Context, req MatchRequest) (*models.Match, error) {
	if req.InitiatorID == uuid.Nil {
		return nil, &ValidationError{Field: "initiator_id", Reason: "is required"}
	}
	if req.TargetID == uuid.Nil {
		return nil, &ValidationError{Field: "target_id", Reason: "is required"}
	}
	if req.InitiatorID == req.TargetID {
		return nil, &ValidationError{Field: "target_id", Reason: "must differ from initiator_id"}
	}
	if fe := validation.Struct(req); fe != nil {
		return nil, &ValidationError{Field: fe.Field, Reason: fe.Reason}
	}

	initiator, err := l.users.GetUser(ctx, req.InitiatorID)
	if err != nil {
		return nil, err
	}
	target, err := l.users.GetUser(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	existing, err := l.matches.FindPending(ctx, initiator.ID, target.ID)
	switch {
	case err == nil:
		return nil, &DuplicateMatchError{User1ID: initiator.ID, User2ID: target.ID, ExistingID: existing.ID}
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("failed to check pending matches: %w", err)
	}

	score, err := l.snapshotScore(ctx, initiator, target)
	if err != nil {
		return nil, err
	}

	var reason *string
	if req.Reason != nil {
		r := validation.SanitizeText(*req.Reason)
		if r != "" {
			reason = &r
		}
	}

	now := l.now()
	m := &models.Match{
		ID:                 uuid.New(),
		User1ID:            initiator.ID,
		User2ID:            target.ID,
		MatchType:          req.MatchType,
		Status:             models.MatchStatusPending,
		CompatibilityScore: &score.Score,
		MatchReason:        reason,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := l.matches.Create(ctx, m); err != nil {
		return nil, err
	}

	l.logger.Info("match_requested",
		zap.String("match_id", m.ID.String()),
		zap.String("user1_id", logger.SanitizeUserID(m.User1ID.String())),
		zap.String("user2_id", logger.SanitizeUserID(m.User2ID.String())),
		zap.String("match_type", string(m.MatchType)),
		zap.Float64("compatibility_score", score.Score),
	)
	return m, nil
}

func (l *MatchLifecycle) snapshotScore(ctx context.Context, initiator, target *models.User) (ScoreResult, error) {
	profiles, err := l.prefs.ProfilesFor(ctx, []*models.User{target})
	if err != nil {
		return ScoreResult{}, err
	}
	history, err := l.ledger.LoadHistory(ctx, initiator.ID, l.now())
	if err != nil {
		return ScoreResult{}, err
	}
	return l.scorer.Score(initiator, target, profiles[target.ID], history.For(target.ID)), nil
}

// Respond accepts or rejects a pending match. Only the match's second user may respond.
func (l *MatchLifecycle) Respond(ctx context.Context, matchID, responder uuid.UUID, decision models.MatchStatus) (*models.Match, error) {
	var typ models.InteractionType
	switch decision {
	case models.MatchStatusAccepted:
		typ = models.InteractionMatchAccepted
	case models.MatchStatusRejected:
		typ = models.InteractionMatchRejected
	default:
		return nil, &ValidationError{Field: "decision", Reason: "must be ACCEPTED or REJECTED"}
	}

	m, _, err := l.apply(ctx, matchID, transition{
		action: "respond",
		to:     decision,
		guard: func(m *models.Match) error {
			if responder != m.User2ID {
				return &NotAuthorizedError{MatchID: m.ID, Actor: responder, Action: "respond to"}
			}
			return nil
		},
		events: func(ctx context.Context, m *models.Match) []*models.InteractionEvent {
			return l.pairEvents(ctx, m, typ)
		},
	})
	if err != nil {
		return nil, err
	}

	if decision == models.MatchStatusAccepted {
		l.notify(ctx, "match_accepted", m, l.notifier.MatchAccepted)
	}
	return m, nil
}

// Schedule moves an accepted match to SCHEDULED. The actor must be a participant.
func (l *MatchLifecycle) Schedule(ctx context.Context, matchID, actor uuid.UUID, at time.Time) (*models.Match, error) {
	if at.IsZero() {
		return nil, &ValidationError{Field: "scheduled_time", Reason: "is required"}
	}
	at = at.UTC()
	m, _, err := l.apply(ctx, matchID, transition{
		action:     "schedule",
		to:         models.MatchStatusScheduled,
		idempotent: true,
		guard:      participantGuard(actor, "schedule"),
		update:     models.StatusUpdate{ScheduledTime: &at},
	})
	return m, err
}

// Start moves a scheduled match to IN_PROGRESS
func (l *MatchLifecycle) Start(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	m, _, err := l.apply(ctx, matchID, transition{
		action:     "start",
		to:         models.MatchStatusInProgress,
		idempotent: true,
	})
	return m, err
}

// Complete moves an in-progress match to COMPLETED and records the meeting for both participants
func (l *MatchLifecycle) Complete(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	m, changed, err := l.apply(ctx, matchID, transition{
		action:     "complete",
		to:         models.MatchStatusCompleted,
		idempotent: true,
		events: func(ctx context.Context, m *models.Match) []*models.InteractionEvent {
			return l.pairEvents(ctx, m, models.InteractionMeetingCompleted)
		},
	})
	if err != nil {
		return nil, err
	}
	if changed {
		l.notify(ctx, "match_completed", m, l.notifier.MatchCompleted)
	}
	return m, nil
}

// Cancel deactivates a pending, accepted or scheduled match. When actor is
// set it must be a participant. No interaction event is recorded.
func (l *MatchLifecycle) Cancel(ctx context.Context, matchID uuid.UUID, actor *uuid.UUID, reason string) (*models.Match, error) {
	var guard func(*models.Match) error
	if actor != nil {
		guard = participantGuard(*actor, "cancel")
	}
	m, _, err := l.apply(ctx, matchID, transition{
		action: "cancel",
		to:     models.MatchStatusCancelled,
		guard:  guard,
		update: models.StatusUpdate{Deactivate: true},
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info("match_cancelled",
		zap.String("match_id", m.ID.String()),
		zap.String("reason", logger.SanitizeReason(reason)),
	)
	return m, nil
}

// GetMatch returns a match by id
func (l *MatchLifecycle) GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	return l.matches.GetByID(ctx, matchID)
}

// ListMatches returns userID's matches, optionally limited to statuses
func (l *MatchLifecycle) ListMatches(ctx context.Context, userID uuid.UUID, statuses ...models.MatchStatus) ([]*models.Match, error) {
	for _, s := range statuses {
		if !s.Valid() {
			return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s)}
		}
	}
	return l.matches.ListByUser(ctx, userID, statuses)
}

// CompletedCount returns how many of userID's matches reached COMPLETED
func (l *MatchLifecycle) CompletedCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return l.matches.CountByStatus(ctx, userID, models.MatchStatusCompleted)
}

// Wait blocks until in-flight notifications have been handed off
func (l *MatchLifecycle) Wait() {
	l.pending.Wait()
}

type transition struct {
	action string
	to     models.MatchStatus
	// idempotent transitions treat a match already in to as a no-op
	idempotent bool
	guard      func(m *models.Match) error
	update     models.StatusUpdate
	events     func(ctx context.Context, m *models.Match) []*models.InteractionEvent
}

// apply runs t as a compare-and-swap on the stored status. It reports whether the
// status actually changed.
func (l *MatchLifecycle) apply(ctx context.Context, matchID uuid.UUID, t transition) (*models.Match, bool, error) {
	ctx, span := l.tracer.Start(ctx, "MatchLifecycle."+t.action,
		trace.WithAttributes(
			attribute.String("match.id", matchID.String()),
			attribute.String("match.to", string(t.to)),
		),
	)
	defer span.End()

	m, err := l.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, false, err
	}
	if t.guard != nil {
		if err := t.guard(m); err != nil {
			return nil, false, err
		}
	}
	if t.idempotent && m.Status == t.to {
		return m, false, nil
	}
	if !m.Status.CanTransitionTo(t.to) {
		return nil, false, &InvalidStateError{MatchID: m.ID, From: m.Status, To: t.to}
	}

	var events []*models.InteractionEvent
	if t.events != nil {
		events = t.events(ctx, m)
	}

	from := m.Status
	ok, err := l.matches.UpdateStatus(ctx, m.ID, from, t.to, t.update, events)
	if err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("failed to update match status: %w", err)
	}
	if !ok {
		current, err := l.matches.GetByID(ctx, m.ID)
		if err != nil {
			return nil, false, err
		}
		if t.idempotent && current.Status == t.to {
			return current, false, nil
		}
		return nil, false, &InvalidStateError{MatchID: m.ID, From: current.Status, To: t.to}
	}

	m.Status = t.to
	m.UpdatedAt = l.now()
	if t.update.ScheduledTime != nil {
		m.ScheduledTime = t.update.ScheduledTime
	}
	if t.update.Deactivate {
		m.IsActive = false
	}

	metrics.MatchTransitions.WithLabelValues(string(from), string(t.to)).Inc()
	l.logger.Info("match_transitioned",
		zap.String("match_id", m.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(t.to)),
		zap.Int("events", len(events)),
	)
	return m, true, nil
}

// pairEvents builds one event per participant directed at the other. The value
// carries the counterpart's industry so later diversity checks can see it.
func (l *MatchLifecycle) pairEvents(ctx context.Context, m *models.Match, typ models.InteractionType) []*models.InteractionEvent {
	u1, u2 := m.User1ID, m.User2ID
	return []*models.InteractionEvent{
		models.NewInteractionEvent(u1, &u2, typ, l.industryOf(ctx, u2)),
		models.NewInteractionEvent(u2, &u1, typ, l.industryOf(ctx, u1)),
	}
}

func (l *MatchLifecycle) industryOf(ctx context.Context, userID uuid.UUID) *string {
	u, err := l.users.GetUser(ctx, userID)
	if err != nil {
		l.logger.Warn("failed to read counterpart industry",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return nil
	}
	industry := u.IndustryText()
	if industry == "" {
		return nil
	}
	return &industry
}

// notify hands m to fn in the background; failures are logged, never returned
func (l *MatchLifecycle) notify(ctx context.Context, event string, m *models.Match, fn func(context.Context, *models.Match) error) {
	snapshot := *m
	ctx = context.WithoutCancel(ctx)
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		if err := fn(ctx, &snapshot); err != nil {
			metrics.NotificationsFailed.WithLabelValues(event).Inc()
			l.logger.Warn("notification_failed",
				zap.String("event", event),
				zap.String("match_id", snapshot.ID.String()),
				zap.Error(err),
			)
		}
	}()
}

func participantGuard(actor uuid.UUID, action string) func(*models.Match) error {
	return func(m *models.Match) error {
		if !m.HasParticipant(actor) {
			return &NotAuthorizedError{MatchID: m.ID, Actor: actor, Action: action}
		}
		return nil
	}
}
