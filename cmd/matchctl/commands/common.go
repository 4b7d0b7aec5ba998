package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/benvon/coffee-match/internal/config"
	"github.com/benvon/coffee-match/internal/database"
	"github.com/benvon/coffee-match/internal/matching"
	"github.com/google/uuid"
)

func openDatabase() (*config.Config, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, db, nil
}

func closeDatabase(db *database.DB) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}

// newEngine builds an engine without a notifier; the CLI never changes match state
func newEngine(cfg *config.Config, db *database.DB) *matching.Engine {
	return matching.NewEngine(database.Stores(db), nil, matching.Config{
		CandidatePoolLimit: cfg.Engine.CandidatePoolLimit,
		DefaultMatchCount:  cfg.Engine.DefaultMatchCount,
		ScoringWorkers:     cfg.Engine.ScoringWorkers,
		ParallelThreshold:  cfg.Engine.ParallelThreshold,
	}, nil)
}

func parseUserID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid user id %q", arg)
	}
	return id, nil
}

func printScore(w io.Writer, r matching.ScoreResult) {
	fmt.Fprintf(w, "  - Candidate: %s\n", r.CandidateID)
	fmt.Fprintf(w, "    Score: %.4f\n", r.Score)
	if !r.Eligible() {
		fmt.Fprintf(w, "    Below threshold (%.2f)\n", matching.MinCompatibility)
	}

	names := make([]string, 0, len(r.Factors))
	for name := range r.Factors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "    %s: %.4f\n", name, r.Factors[name])
	}
}
