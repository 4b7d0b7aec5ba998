package matching

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/benvon/coffee-match/internal/metrics"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultScoringWorkers bounds concurrent scoring goroutines
	DefaultScoringWorkers = 8
	// DefaultParallelThreshold is the pool size at which scoring goes concurrent
	DefaultParallelThreshold = 32
)

// Candidate is one entry of the pool handed to the filter
type Candidate struct {
	User    *models.User
	Prefs   *models.PreferenceProfile
	History History
}

// FilterStep describes how many candidates each stage dropped
type FilterStep struct {
	Initial  int
	Excluded int
	Below    int
	Left     int
}

// CandidateFilter excludes ineligible candidates, scores the rest and ranks them
type CandidateFilter struct {
	scorer            *Scorer
	workers           int
	parallelThreshold int
	logger            *zap.Logger
}

// FilterOption configures a CandidateFilter
type FilterOption func(*CandidateFilter)

// WithScoringWorkers sets the concurrency limit
func WithScoringWorkers(n int) FilterOption {
	return func(f *CandidateFilter) {
		if n > 0 {
			f.workers = n
		}
	}
}

// WithParallelThreshold sets the pool size at which scoring runs concurrently
func WithParallelThreshold(n int) FilterOption {
	return func(f *CandidateFilter) {
		if n > 0 {
			f.parallelThreshold = n
		}
	}
}

// NewCandidateFilter creates a filter around scorer
func NewCandidateFilter(scorer *Scorer, logger *zap.Logger, opts ...FilterOption) *CandidateFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &CandidateFilter{
		scorer:            scorer,
		workers:           DefaultScoringWorkers,
		parallelThreshold: DefaultParallelThreshold,
		logger:            logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Rank scores candidates for user and returns at most count eligible results,
// highest score first with ties broken by candidate id. The user itself and ids
// in exclude never appear. count <= 0 returns every eligible candidate.
func (f *CandidateFilter) Rank(ctx context.Context, user *models.User, candidates []Candidate, exclude map[uuid.UUID]struct{}, count int) ([]ScoreResult, FilterStep, error) {
	step := FilterStep{Initial: len(candidates)}

	pool := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.User == nil || c.User.ID == user.ID {
			step.Excluded++
			continue
		}
		if _, skip := exclude[c.User.ID]; skip {
			step.Excluded++
			continue
		}
		pool = append(pool, c)
	}

	start := time.Now()
	scored, err := f.scoreAll(ctx, user, pool)
	if err != nil {
		return nil, step, err
	}
	metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	metrics.CandidatesScored.Add(float64(len(scored)))

	eligible := scored[:0]
	for _, r := range scored {
		if r.Eligible() {
			eligible = append(eligible, r)
		}
	}
	step.Below = len(scored) - len(eligible)
	metrics.CandidatesEligible.Add(float64(len(eligible)))

	sortResults(eligible)
	if count > 0 && len(eligible) > count {
		eligible = eligible[:count]
	}
	step.Left = len(eligible)

	f.logger.Debug("candidate_filter",
		zap.String("user_id", user.ID.String()),
		zap.Int("initial", step.Initial),
		zap.Int("excluded", step.Excluded),
		zap.Int("below_threshold", step.Below),
		zap.Int("left", step.Left),
	)

	return eligible, step, nil
}

func (f *CandidateFilter) scoreAll(ctx context.Context, user *models.User, pool []Candidate) ([]ScoreResult, error) {
	results := make([]ScoreResult, len(pool))
	if len(pool) < f.parallelThreshold {
		for i, c := range pool {
			results[i] = f.scorer.Score(user, c.User, c.Prefs, c.History)
		}
		return results, ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i := range pool {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := pool[i]
			results[i] = f.scorer.Score(user, c.User, c.Prefs, c.History)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func sortResults(results []ScoreResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return bytes.Compare(results[i].CandidateID[:], results[j].CandidateID[:]) < 0
	})
}
