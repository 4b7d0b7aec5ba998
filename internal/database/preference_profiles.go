package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const profileColumns = `id, user_id, skill_vector, interest_vector, industry_vector, communication_style,
	meeting_preference, experience_level, matching_radius, last_updated, created_at`

// PreferenceProfileRepository handles preference profile database operations
type PreferenceProfileRepository struct {
	db *DB
}

// NewPreferenceProfileRepository creates a new preference profile repository
func NewPreferenceProfileRepository(db *DB) *PreferenceProfileRepository {
	return &PreferenceProfileRepository{db: db}
}

// GetByUserID retrieves the profile of a user
func (r *PreferenceProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.PreferenceProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM preference_profiles WHERE user_id = $1`

	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, matching.NewNotFound("preference profile", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference profile: %w", err)
	}
	return profile, nil
}

// ListByUserIDs retrieves the stored profiles of the given users keyed by user ID
func (r *PreferenceProfileRepository) ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*models.PreferenceProfile, error) {
	out := make(map[uuid.UUID]*models.PreferenceProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}

	query := `SELECT ` + profileColumns + ` FROM preference_profiles WHERE user_id = ANY($1::uuid[])`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list preference profiles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preference profile: %w", err)
		}
		out[profile.UserID] = profile
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preference profiles: %w", err)
	}
	return out, nil
}

// CreateIfAbsent inserts profile unless the user already has one and returns the stored row.
// The insert is an upsert so concurrent first accesses converge on a single profile.
func (r *PreferenceProfileRepository) CreateIfAbsent(ctx context.Context, profile *models.PreferenceProfile) (*models.PreferenceProfile, error) {
	skills, interests, industry, err := marshalVectors(profile)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO preference_profiles (id, user_id, skill_vector, interest_vector, industry_vector,
			communication_style, meeting_preference, experience_level, matching_radius, last_updated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		skills,
		interests,
		industry,
		profile.CommunicationStyle,
		profile.MeetingPreference,
		profile.ExperienceLevel,
		profile.MatchingRadius,
		profile.LastUpdated,
		profile.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create preference profile: %w", err)
	}

	// Re-fetch so a concurrently created profile wins
	return r.GetByUserID(ctx, profile.UserID)
}

// Update overwrites the mutable fields of the user's profile
func (r *PreferenceProfileRepository) Update(ctx context.Context, profile *models.PreferenceProfile) error {
	skills, interests, industry, err := marshalVectors(profile)
	if err != nil {
		return err
	}

	query := `
		UPDATE preference_profiles
		SET skill_vector = $1, interest_vector = $2, industry_vector = $3, communication_style = $4,
			meeting_preference = $5, experience_level = $6, matching_radius = $7, last_updated = $8
		WHERE user_id = $9
	`
	result, err := r.db.ExecContext(ctx, query,
		skills,
		interests,
		industry,
		profile.CommunicationStyle,
		profile.MeetingPreference,
		profile.ExperienceLevel,
		profile.MatchingRadius,
		profile.LastUpdated,
		profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update preference profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return matching.NewNotFound("preference profile", profile.UserID)
	}
	return nil
}

func marshalVectors(p *models.PreferenceProfile) (skills, interests, industry []byte, err error) {
	p.EnsureVectors()
	if skills, err = json.Marshal(p.SkillVector); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal skill_vector: %w", err)
	}
	if interests, err = json.Marshal(p.InterestVector); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal interest_vector: %w", err)
	}
	if industry, err = json.Marshal(p.IndustryVector); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal industry_vector: %w", err)
	}
	return skills, interests, industry, nil
}

func scanProfile(row rowScanner) (*models.PreferenceProfile, error) {
	p := &models.PreferenceProfile{}
	var skills, interests, industry []byte
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&skills,
		&interests,
		&industry,
		&p.CommunicationStyle,
		&p.MeetingPreference,
		&p.ExperienceLevel,
		&p.MatchingRadius,
		&p.LastUpdated,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, v := range []struct {
		name string
		raw  []byte
		dst  *models.TokenVector
	}{
		{"skill_vector", skills, &p.SkillVector},
		{"interest_vector", interests, &p.InterestVector},
		{"industry_vector", industry, &p.IndustryVector},
	} {
		if len(v.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(v.raw, v.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", v.name, err)
		}
	}
	p.EnsureVectors()
	return p, nil
}
