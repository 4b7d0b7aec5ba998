package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return Wrap(sqlDB), mock
}

var matchColumnNames = []string{
	"id", "user1_id", "user2_id", "match_type", "status", "compatibility_score", "match_reason",
	"scheduled_time", "is_active", "created_at", "updated_at",
}

func matchRows(m *models.Match) *sqlmock.Rows {
	var score any
	if m.CompatibilityScore != nil {
		score = *m.CompatibilityScore
	}
	return sqlmock.NewRows(matchColumnNames).AddRow(
		m.ID.String(),
		m.User1ID.String(),
		m.User2ID.String(),
		string(m.MatchType),
		string(m.Status),
		score,
		nil,
		nil,
		m.IsActive,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func sampleMatch(status models.MatchStatus) *models.Match {
	score := 0.42
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return &models.Match{
		ID:                 uuid.New(),
		User1ID:            uuid.New(),
		User2ID:            uuid.New(),
		MatchType:          models.MatchTypeCoffeeChat,
		Status:             status,
		CompatibilityScore: &score,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
