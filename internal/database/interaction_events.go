package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
)

// InteractionEventRepository is the append-only interaction ledger
type InteractionEventRepository struct {
	db *DB
}

// NewInteractionEventRepository creates a new interaction event repository
func NewInteractionEventRepository(db *DB) *InteractionEventRepository {
	return &InteractionEventRepository{db: db}
}

// Append inserts an event
func (r *InteractionEventRepository) Append(ctx context.Context, event *models.InteractionEvent) error {
	if err := insertEvent(ctx, r.db, event); err != nil {
		return fmt.Errorf("failed to append interaction event: %w", err)
	}
	return nil
}

// ListInvolving returns events where userID is source or target, oldest first
func (r *InteractionEventRepository) ListInvolving(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.InteractionEvent, error) {
	query := `
		SELECT id, user_id, target_user_id, type, value, weight, created_at
		FROM interaction_events
		WHERE (user_id = $1 OR target_user_id = $1) AND created_at >= $2
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list interaction events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []*models.InteractionEvent
	for rows.Next() {
		e := &models.InteractionEvent{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.TargetUserID, &e.Type, &e.Value, &e.Weight, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interaction events: %w", err)
	}
	return events, nil
}

func insertEvent(ctx context.Context, ex execer, e *models.InteractionEvent) error {
	query := `
		INSERT INTO interaction_events (id, user_id, target_user_id, type, value, weight, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := ex.ExecContext(ctx, query, e.ID, e.UserID, e.TargetUserID, e.Type, e.Value, e.Weight, e.CreatedAt)
	return err
}
