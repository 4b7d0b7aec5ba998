package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/metrics"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/benvon/coffee-match/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRetryBase is the first retry delay; later retries double it
const DefaultRetryBase = 5 * time.Second

// ProfileRefresh re-derives a user's preference vectors
type ProfileRefresh interface {
	Refresh(ctx context.Context, userID uuid.UUID) (*models.PreferenceProfile, error)
}

// UserInvalidator drops a cached user record
type UserInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// ProfileRefresher processes profile refresh jobs
type ProfileRefresher struct {
	prefs     ProfileRefresh
	users     UserInvalidator
	jobQueue  queue.JobQueue // for re-enqueueing retries with a delay
	retryBase time.Duration
	logger    *zap.Logger
}

// NewProfileRefresher creates a refresher. users may be nil when no cache is in front of the user store.
func NewProfileRefresher(prefs ProfileRefresh, users UserInvalidator, jobQueue queue.JobQueue, logger *zap.Logger) *ProfileRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileRefresher{
		prefs:     prefs,
		users:     users,
		jobQueue:  jobQueue,
		retryBase: DefaultRetryBase,
		logger:    logger,
	}
}

// ProcessJob handles one delivery and always settles it with Ack or Nack
func (r *ProfileRefresher) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.Type != queue.JobTypeProfileRefresh {
		metrics.JobsProcessed.WithLabelValues(string(job.Type), "rejected").Inc()
		if nackErr := msg.Nack(false); nackErr != nil { // unknown job type, send to DLQ
			r.logger.Warn("failed_to_nack_job", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err := r.refresh(ctx, job); err != nil {
		return r.handleJobError(ctx, msg, job, err)
	}

	metrics.JobsProcessed.WithLabelValues(string(job.Type), "success").Inc()
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

func (r *ProfileRefresher) refresh(ctx context.Context, job *queue.Job) error {
	if r.users != nil {
		if err := r.users.Invalidate(ctx, job.UserID); err != nil {
			r.logger.Warn("user_cache_invalidate_failed",
				zap.String("user_id", job.UserID.String()),
				zap.Error(err),
			)
		}
	}

	profile, err := r.prefs.Refresh(ctx, job.UserID)
	if err != nil {
		return err
	}

	r.logger.Info("profile_refreshed",
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", job.UserID.String()),
		zap.Time("last_updated", profile.LastUpdated),
	)
	return nil
}

func (r *ProfileRefresher) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	log := r.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", job.UserID.String()),
		zap.Int("retry_count", job.RetryCount),
	)

	// Missing users and bad input will not succeed on retry
	permanent := errors.Is(err, matching.ErrNotFound) || errors.Is(err, matching.ErrValidation)

	if !permanent && job.CanRetry() && r.jobQueue != nil {
		next := job.Retry(r.retryBase)
		enqueueErr := r.jobQueue.Enqueue(ctx, next)
		if enqueueErr == nil {
			metrics.JobsProcessed.WithLabelValues(string(job.Type), "retried").Inc()
			log.Warn("profile_refresh_retry_scheduled", zap.Time("not_before", *next.NotBefore), zap.Error(err))
			if ackErr := msg.Ack(); ackErr != nil {
				log.Warn("failed_to_ack_job", zap.Error(ackErr))
			}
			return nil
		}
		log.Error("profile_refresh_retry_enqueue_failed", zap.Error(enqueueErr))
	}

	metrics.JobsProcessed.WithLabelValues(string(job.Type), "failed").Inc()
	log.Error("profile_refresh_failed", zap.Bool("permanent", permanent), zap.Error(err))
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Warn("failed_to_nack_job", zap.Error(nackErr))
	}
	return fmt.Errorf("profile refresh failed: %w", err)
}
