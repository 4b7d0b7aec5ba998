// Package notify hands accepted and completed matches to the notification service.
package notify

import (
	"context"
	"fmt"

	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/benvon/coffee-match/internal/queue"
	"go.uber.org/zap"
)

// QueueNotifier publishes a notification job per transition
type QueueNotifier struct {
	queue  queue.JobQueue
	logger *zap.Logger
}

var _ matching.Notifier = (*QueueNotifier)(nil)

// NewQueueNotifier creates a notifier publishing to q
func NewQueueNotifier(q queue.JobQueue, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{queue: q, logger: logger}
}

// MatchAccepted publishes a match_accepted notification
func (n *QueueNotifier) MatchAccepted(ctx context.Context, m *models.Match) error {
	return n.publish(ctx, queue.EventMatchAccepted, m)
}

// MatchCompleted publishes a match_completed notification
func (n *QueueNotifier) MatchCompleted(ctx context.Context, m *models.Match) error {
	return n.publish(ctx, queue.EventMatchCompleted, m)
}

func (n *QueueNotifier) publish(ctx context.Context, event queue.NotificationEvent, m *models.Match) error {
	job := queue.NewMatchNotificationJob(event, m.ID, m.User1ID, m.User2ID)
	if err := n.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue %s notification: %w", event, err)
	}
	n.logger.Debug("notification_enqueued",
		zap.String("event", string(event)),
		zap.String("match_id", m.ID.String()),
		zap.String("job_id", job.ID.String()),
	)
	return nil
}

// LogNotifier only logs transitions; used when no broker is configured
type LogNotifier struct {
	logger *zap.Logger
}

var _ matching.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a logging notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) MatchAccepted(_ context.Context, m *models.Match) error {
	n.log(queue.EventMatchAccepted, m)
	return nil
}

func (n *LogNotifier) MatchCompleted(_ context.Context, m *models.Match) error {
	n.log(queue.EventMatchCompleted, m)
	return nil
}

func (n *LogNotifier) log(event queue.NotificationEvent, m *models.Match) {
	n.logger.Info("notification_dropped",
		zap.String("event", string(event)),
		zap.String("match_id", m.ID.String()),
	)
}
