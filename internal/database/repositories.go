package database

import (
	"github.com/benvon/coffee-match/internal/matching"
)

// Ensure concrete types implement the engine's store interfaces
var (
	_ matching.UserReader        = (*UserRepository)(nil)
	_ matching.PreferenceStore   = (*PreferenceProfileRepository)(nil)
	_ matching.InteractionLedger = (*InteractionEventRepository)(nil)
	_ matching.MatchStore        = (*MatchRepository)(nil)
	_ matching.FeedbackStore     = (*FeedbackRepository)(nil)
)

// Stores returns Postgres-backed stores for every engine role
func Stores(db *DB) matching.Stores {
	return matching.Stores{
		Users:        NewUserRepository(db),
		Preferences:  NewPreferenceProfileRepository(db),
		Interactions: NewInteractionEventRepository(db),
		Matches:      NewMatchRepository(db),
		Feedback:     NewFeedbackRepository(db),
	}
}
