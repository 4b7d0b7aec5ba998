package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const matchColumns = `id, user1_id, user2_id, match_type, status, compatibility_score, match_reason,
	scheduled_time, is_active, created_at, updated_at`

// MatchRepository handles match database operations
type MatchRepository struct {
	db *DB
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create inserts a new match. The partial unique index on the unordered pair
// turns a concurrent duplicate request into a DuplicateMatchError.
func (r *MatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (id, user1_id, user2_id, match_type, status, compatibility_score, match_reason,
			scheduled_time, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.User1ID,
		m.User2ID,
		m.MatchType,
		m.Status,
		m.CompatibilityScore,
		m.MatchReason,
		m.ScheduledTime,
		m.IsActive,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return &matching.DuplicateMatchError{User1ID: m.User1ID, User2ID: m.User2ID}
	}
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

// GetByID retrieves a match by ID
func (r *MatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, matching.NewNotFound("match", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// FindPending returns the pending match between a and b in either order
func (r *MatchRepository) FindPending(ctx context.Context, a, b uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE status = $1 AND ((user1_id = $2 AND user2_id = $3) OR (user1_id = $3 AND user2_id = $2))
		LIMIT 1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, models.MatchStatusPending, a, b))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &matching.NotFoundError{Entity: "pending match", ID: a.String() + "/" + b.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending match: %w", err)
	}
	return m, nil
}

// ListByUser returns the user's matches, newest first. No statuses means all.
func (r *MatchRepository) ListByUser(ctx context.Context, userID uuid.UUID, statuses []models.MatchStatus) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE (user1_id = $1 OR user2_id = $1) AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(statusStrings(statuses)))
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}
	return out, nil
}

// PairedUserIDs returns the counterparts of userID in matches with any of statuses
func (r *MatchRepository) PairedUserIDs(ctx context.Context, userID uuid.UUID, statuses []models.MatchStatus) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT CASE WHEN user1_id = $1 THEN user2_id ELSE user1_id END
		FROM matches
		WHERE (user1_id = $1 OR user2_id = $1) AND status = ANY($2::text[])
	`

	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(statusStrings(statuses)))
	if err != nil {
		return nil, fmt.Errorf("failed to list paired users: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan paired user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate paired users: %w", err)
	}
	return ids, nil
}

// CountByStatus counts the user's matches in status
func (r *MatchRepository) CountByStatus(ctx context.Context, userID uuid.UUID, status models.MatchStatus) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE (user1_id = $1 OR user2_id = $1) AND status = $2`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

// UpdateStatus moves the match from -> to only if its status is still from and
// appends events in the same transaction. Returns false if the status changed underneath.
func (r *MatchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.MatchStatus, update models.StatusUpdate, events []*models.InteractionEvent) (bool, error) {
	query := `
		UPDATE matches
		SET status = $1, updated_at = $2, scheduled_time = COALESCE($3, scheduled_time),
			is_active = is_active AND NOT $4
		WHERE id = $5 AND status = $6
	`

	applied := false
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, to, time.Now().UTC(), update.ScheduledTime, update.Deactivate, id, from)
		if err != nil {
			return fmt.Errorf("failed to update match status: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			// Status conflict - another transition won
			return nil
		}
		for _, e := range events {
			if err := insertEvent(ctx, tx, e); err != nil {
				return fmt.Errorf("failed to append interaction event: %w", err)
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func statusStrings(statuses []models.MatchStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID,
		&m.User1ID,
		&m.User2ID,
		&m.MatchType,
		&m.Status,
		&m.CompatibilityScore,
		&m.MatchReason,
		&m.ScheduledTime,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
