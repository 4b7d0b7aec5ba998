package matching

import (
	"context"
	"testing"
	"time"

	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewUserHistory(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user, other, third := uuid.New(), uuid.New(), uuid.New()

	at := func(e *models.InteractionEvent, ts time.Time) *models.InteractionEvent {
		e.CreatedAt = ts
		return e
	}

	events := []*models.InteractionEvent{
		at(models.NewInteractionEvent(user, &other, models.InteractionProfileView, strPtr("Tech")), now.Add(-time.Hour)),
		at(models.NewInteractionEvent(other, &user, models.InteractionMatchAccepted, nil), now.Add(-2*time.Hour)),
		at(models.NewInteractionEvent(user, &third, models.InteractionProfileView, strPtr("Retail")), now.Add(-40*24*time.Hour)),
		at(models.NewInteractionEvent(user, nil, models.InteractionSkillSearch, strPtr("golang")), now.Add(-24*time.Hour)),
	}

	h := NewUserHistory(user, events, now)

	withOther := h.For(other)
	assert.Len(t, withOther.PairEvents, 2)
	assert.Len(t, h.For(third).PairEvents, 1)
	assert.Empty(t, h.For(uuid.New()).PairEvents)

	// the 40 day old view and the counterpart's own event are not recent
	assert.Len(t, withOther.RecentUserEvents, 2)
	for _, e := range withOther.RecentUserEvents {
		assert.Equal(t, user, e.UserID)
	}
}

type sinceRecordingLedger struct {
	since  []time.Time
	events []*models.InteractionEvent
}

func (s *sinceRecordingLedger) Append(_ context.Context, e *models.InteractionEvent) error {
	s.events = append(s.events, e)
	return nil
}

func (s *sinceRecordingLedger) ListInvolving(_ context.Context, _ uuid.UUID, since time.Time) ([]*models.InteractionEvent, error) {
	s.since = append(s.since, since)
	return s.events, nil
}

func TestLedger_LoadHistoryReadsWholeLedger(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user, other := uuid.New(), uuid.New()

	old := models.NewInteractionEvent(user, &other, models.InteractionMatchAccepted, strPtr("Tech"))
	old.CreatedAt = now.Add(-365 * 24 * time.Hour)
	store := &sinceRecordingLedger{events: []*models.InteractionEvent{old}}

	h, err := NewLedger(store, nil).LoadHistory(context.Background(), user, now)
	assert.NoError(t, err)

	assert.Len(t, store.since, 1)
	assert.True(t, store.since[0].IsZero(), "history must not be bounded by a window")
	assert.Len(t, h.For(other).PairEvents, 1)
	assert.Empty(t, h.For(other).RecentUserEvents)
}
