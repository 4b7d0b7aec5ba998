package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
)

const userColumns = `id, name, industry, skills, interests, experience_level, company_id, created_at, updated_at`

// UserRepository reads user attributes from the shared users table
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUser retrieves a user by ID
func (r *UserRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, matching.NewNotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListCandidates returns up to limit users other than excludeID, ordered by id
func (r *UserRepository) ListCandidates(ctx context.Context, excludeID uuid.UUID, limit int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id <> $1 ORDER BY id LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var level sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Industry,
		&user.Skills,
		&user.Interests,
		&level,
		&user.CompanyID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if level.Valid {
		// unknown levels are treated as missing
		if l := models.ExperienceLevel(level.String); l.Valid() {
			user.ExperienceLevel = &l
		}
	}
	return user, nil
}
