package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profileColumnNames = []string{
	"id", "user_id", "skill_vector", "interest_vector", "industry_vector", "communication_style",
	"meeting_preference", "experience_level", "matching_radius", "last_updated", "created_at",
}

func TestPreferenceProfileRepository_GetByUserID_NotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT (.+) FROM preference_profiles WHERE user_id").WillReturnError(sql.ErrNoRows)

	_, err := NewPreferenceProfileRepository(db).GetByUserID(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, matching.ErrNotFound), "got %v", err)
}

func TestPreferenceProfileRepository_CreateIfAbsent(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	profile := &models.PreferenceProfile{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		SkillVector:        models.TokenVector{"java": 1},
		CommunicationStyle: models.CommunicationCollaborative,
		MeetingPreference:  models.MeetingNone,
		ExperienceLevel:    models.ExperienceMid,
		MatchingRadius:     100,
		LastUpdated:        now,
		CreatedAt:          now,
	}
	storedID := uuid.New()

	mock.ExpectExec("INSERT INTO preference_profiles").
		WithArgs(profile.ID, profile.UserID, []byte(`{"java":1}`), []byte(`{}`), []byte(`{}`),
			"COLLABORATIVE", "NONE", "MID", 100, now, now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM preference_profiles WHERE user_id").
		WithArgs(profile.UserID).
		WillReturnRows(sqlmock.NewRows(profileColumnNames).AddRow(
			storedID.String(), profile.UserID.String(),
			[]byte(`{"java":2,"kotlin":1}`), []byte(`{}`), nil,
			"DIRECT", "VIRTUAL", "SENIOR", 30, now, now,
		))

	got, err := NewPreferenceProfileRepository(db).CreateIfAbsent(context.Background(), profile)
	require.NoError(t, err)

	// the concurrently created row wins
	assert.Equal(t, storedID, got.ID)
	assert.Equal(t, models.CommunicationDirect, got.CommunicationStyle)
	assert.Equal(t, 2.0, got.SkillVector["java"])
	assert.NotNil(t, got.IndustryVector)
	assert.Equal(t, 30, got.MatchingRadius)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceProfileRepository_Update_Missing(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE preference_profiles").WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewPreferenceProfileRepository(db).Update(context.Background(), &models.PreferenceProfile{UserID: uuid.New()})
	assert.ErrorIs(t, err, matching.ErrNotFound)
}
