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
)

// FeedbackRepository handles match feedback database operations
type FeedbackRepository struct {
	db *DB
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// UpsertAndRecalibrate stores fb and event and, once both participants have
// submitted, overwrites the match score with the realized score. The match row
// is locked for the whole transaction so two final submissions serialize.
func (r *FeedbackRepository) UpsertAndRecalibrate(ctx context.Context, fb *models.MatchFeedback, event *models.InteractionEvent) (*models.FeedbackResult, error) {
	res := &models.FeedbackResult{}

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		lockQuery := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
		m, err := scanMatch(tx.QueryRowContext(ctx, lockQuery, fb.MatchID))
		if errors.Is(err, sql.ErrNoRows) {
			return matching.NewNotFound("match", fb.MatchID)
		}
		if err != nil {
			return fmt.Errorf("failed to lock match: %w", err)
		}

		now := time.Now().UTC()
		upsertQuery := `
			INSERT INTO match_feedback (id, match_id, user_id, quality_rating, conversation_rating, relevance_rating,
				would_meet_again, notes, tags, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
			ON CONFLICT (match_id, user_id) DO UPDATE
			SET quality_rating = EXCLUDED.quality_rating,
				conversation_rating = EXCLUDED.conversation_rating,
				relevance_rating = EXCLUDED.relevance_rating,
				would_meet_again = EXCLUDED.would_meet_again,
				notes = EXCLUDED.notes,
				tags = EXCLUDED.tags,
				updated_at = EXCLUDED.updated_at
			RETURNING id, created_at, updated_at
		`
		stored := *fb
		err = tx.QueryRowContext(ctx, upsertQuery,
			fb.ID,
			fb.MatchID,
			fb.UserID,
			fb.QualityRating,
			fb.ConversationRating,
			fb.RelevanceRating,
			fb.WouldMeetAgain,
			fb.Notes,
			fb.Tags,
			now,
		).Scan(&stored.ID, &stored.CreatedAt, &stored.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert feedback: %w", err)
		}

		if event != nil {
			if err := insertEvent(ctx, tx, event); err != nil {
				return fmt.Errorf("failed to append interaction event: %w", err)
			}
		}

		ratings, err := qualityRatings(ctx, tx, fb.MatchID)
		if err != nil {
			return err
		}
		res.Submissions = len(ratings)

		if len(ratings) >= 2 {
			realized := models.RealizedScore(ratings)
			recalQuery := `UPDATE matches SET compatibility_score = $1, updated_at = $2 WHERE id = $3`
			if _, err := tx.ExecContext(ctx, recalQuery, realized, now, fb.MatchID); err != nil {
				return fmt.Errorf("failed to recalibrate match: %w", err)
			}
			m.CompatibilityScore = &realized
			m.UpdatedAt = now
			res.Recalibrated = true
			res.RealizedScore = &realized
		}

		res.Feedback = &stored
		res.Match = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByMatch returns the feedback rows of a match, oldest first
func (r *FeedbackRepository) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]*models.MatchFeedback, error) {
	query := `
		SELECT id, match_id, user_id, quality_rating, conversation_rating, relevance_rating,
			would_meet_again, notes, tags, created_at, updated_at
		FROM match_feedback
		WHERE match_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []*models.MatchFeedback
	for rows.Next() {
		fb := &models.MatchFeedback{}
		err := rows.Scan(
			&fb.ID,
			&fb.MatchID,
			&fb.UserID,
			&fb.QualityRating,
			&fb.ConversationRating,
			&fb.RelevanceRating,
			&fb.WouldMeetAgain,
			&fb.Notes,
			&fb.Tags,
			&fb.CreatedAt,
			&fb.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return out, nil
}

func qualityRatings(ctx context.Context, tx *sql.Tx, matchID uuid.UUID) ([]int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT quality_rating FROM match_feedback WHERE match_id = $1`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to read quality ratings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, fmt.Errorf("failed to scan quality rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quality ratings: %w", err)
	}
	return ratings, nil
}
