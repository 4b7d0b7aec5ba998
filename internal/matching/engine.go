package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultCandidatePoolLimit bounds the candidates loaded per request
	DefaultCandidatePoolLimit = 500
	// DefaultMatchCount is used when a request asks for zero or fewer matches
	DefaultMatchCount = 10
)

// Config tunes the engine
type Config struct {
	CandidatePoolLimit int
	DefaultMatchCount  int
	ScoringWorkers     int
	ParallelThreshold  int
}

// Stores bundles the persistence collaborators of the engine
type Stores struct {
	Users        UserReader
	Preferences  PreferenceStore
	Interactions InteractionLedger
	Matches      MatchStore
	Feedback     FeedbackStore
}

// Engine wires the matching components together. Lifecycle and feedback
// operations are promoted from the embedded components.
type Engine struct {
	*MatchLifecycle
	*FeedbackRecalibrator

	Preferences *PreferenceService
	Ledger      *Ledger

	users   UserReader
	matches MatchStore
	scorer  *Scorer
	filter  *CandidateFilter
	cfg     Config
	log     *zap.Logger
	trace   trace.Tracer
	clock   func() time.Time
}

// NewEngine builds an engine over stores. A nil notifier drops notifications.
func NewEngine(stores Stores, notifier Notifier, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CandidatePoolLimit <= 0 {
		cfg.CandidatePoolLimit = DefaultCandidatePoolLimit
	}
	if cfg.DefaultMatchCount <= 0 {
		cfg.DefaultMatchCount = DefaultMatchCount
	}

	vectorizer := NewTokenVectorizer()
	scorer := NewScorer(vectorizer)
	prefs := NewPreferenceService(stores.Preferences, stores.Users, vectorizer, logger)
	ledger := NewLedger(stores.Interactions, logger)

	return &Engine{
		MatchLifecycle:       NewMatchLifecycle(stores.Matches, stores.Users, prefs, ledger, scorer, notifier, logger),
		FeedbackRecalibrator: NewFeedbackRecalibrator(stores.Matches, stores.Feedback, logger),
		Preferences:          prefs,
		Ledger:               ledger,
		users:                stores.Users,
		matches:              stores.Matches,
		scorer:               scorer,
		filter: NewCandidateFilter(scorer, logger,
			WithScoringWorkers(cfg.ScoringWorkers),
			WithParallelThreshold(cfg.ParallelThreshold),
		),
		cfg:   cfg,
		log:   logger,
		trace: otel.Tracer(tracerName),
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// FindMatches ranks up to count candidates for userID. Scoring reads the ledger
// but never appends to it.
func (e *Engine) FindMatches(ctx context.Context, userID uuid.UUID, count int) ([]ScoreResult, error) {
	ctx, span := e.trace.Start(ctx, "Engine.FindMatches",
		trace.WithAttributes(attribute.String("user.id", userID.String())),
	)
	defer span.End()

	if count <= 0 {
		count = e.cfg.DefaultMatchCount
	}

	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := e.Preferences.GetOrCreate(ctx, user); err != nil {
		return nil, err
	}

	history, err := e.Ledger.LoadHistory(ctx, user.ID, e.clock())
	if err != nil {
		return nil, err
	}

	paired, err := e.matches.PairedUserIDs(ctx, user.ID, models.PairedStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list paired users: %w", err)
	}
	exclude := make(map[uuid.UUID]struct{}, len(paired))
	for _, id := range paired {
		exclude[id] = struct{}{}
	}

	users, err := e.users.ListCandidates(ctx, user.ID, e.cfg.CandidatePoolLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	profiles, err := e.Preferences.ProfilesFor(ctx, users)
	if err != nil {
		return nil, err
	}

	pool := make([]Candidate, 0, len(users))
	for _, u := range users {
		pool = append(pool, Candidate{
			User:    u,
			Prefs:   profiles[u.ID],
			History: history.For(u.ID),
		})
	}

	results, step, err := e.filter.Rank(ctx, user, pool, exclude, count)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("candidates.initial", step.Initial),
		attribute.Int("candidates.left", step.Left),
	)

	e.log.Info("matches_found",
		zap.String("user_id", user.ID.String()),
		zap.Int("pool", step.Initial),
		zap.Int("returned", len(results)),
	)
	return results, nil
}

// ScorePair scores candidateID for userID without filtering
func (e *Engine) ScorePair(ctx context.Context, userID, candidateID uuid.UUID) (ScoreResult, error) {
	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return ScoreResult{}, err
	}
	candidate, err := e.users.GetUser(ctx, candidateID)
	if err != nil {
		return ScoreResult{}, err
	}
	profiles, err := e.Preferences.ProfilesFor(ctx, []*models.User{candidate})
	if err != nil {
		return ScoreResult{}, err
	}
	history, err := e.Ledger.LoadHistory(ctx, user.ID, e.clock())
	if err != nil {
		return ScoreResult{}, err
	}
	return e.scorer.Score(user, candidate, profiles[candidate.ID], history.For(candidate.ID)), nil
}
