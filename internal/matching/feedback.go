package matching

import (
	"context"
	"fmt"

	"github.com/benvon/coffee-match/internal/metrics"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/benvon/coffee-match/internal/validation"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// FeedbackInput is one participant's ratings for a completed match
type FeedbackInput struct {
	QualityRating      int     `json:"quality_rating" validate:"required,min=1,max=5"`
	ConversationRating *int    `json:"conversation_rating,omitempty" validate:"omitempty,min=1,max=5"`
	RelevanceRating    *int    `json:"relevance_rating,omitempty" validate:"omitempty,min=1,max=5"`
	WouldMeetAgain     *bool   `json:"would_meet_again,omitempty"`
	Notes              *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Tags               *string `json:"tags,omitempty" validate:"omitempty,max=500"`
}

// FeedbackRecalibrator folds post-meeting feedback back into the match score and the ledger
type FeedbackRecalibrator struct {
	matches  MatchStore
	feedback FeedbackStore
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewFeedbackRecalibrator creates a recalibrator
func NewFeedbackRecalibrator(matches MatchStore, feedback FeedbackStore, logger *zap.Logger) *FeedbackRecalibrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackRecalibrator{
		matches:  matches,
		feedback: feedback,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// SubmitFeedback upserts userID's feedback for a completed match. Once both
// participants have submitted, the match score is overwritten with the realized
// score. A FEEDBACK_GIVEN event directed at the other participant is recorded
// on every submission.
func (r *FeedbackRecalibrator) SubmitFeedback(ctx context.Context, matchID, userID uuid.UUID, in FeedbackInput) (*models.FeedbackResult, error) {
	ctx, span := r.tracer.Start(ctx, "FeedbackRecalibrator.SubmitFeedback",
		trace.WithAttributes(attribute.String("match.id", matchID.String())),
	)
	defer span.End()

	res, err := r.submit(ctx, matchID, userID, in)
	if err != nil {
		metrics.FeedbackSubmissions.WithLabelValues("error").Inc()
		return nil, err
	}

	if res.Recalibrated {
		metrics.FeedbackSubmissions.WithLabelValues("recalibrated").Inc()
		metrics.RealizedScores.Observe(*res.RealizedScore)
		r.logger.Info("feedback_recalibrated",
			zap.String("match_id", matchID.String()),
			zap.Float64("realized_score", *res.RealizedScore),
		)
	} else {
		metrics.FeedbackSubmissions.WithLabelValues("stored").Inc()
		r.logger.Info("feedback_stored",
			zap.String("match_id", matchID.String()),
			zap.Int("submissions", res.Submissions),
		)
	}
	return res, nil
}

func (r *FeedbackRecalibrator) submit(ctx context.Context, matchID, userID uuid.UUID, in FeedbackInput) (*models.FeedbackResult, error) {
	if fe := validation.Struct(in); fe != nil {
		return nil, &ValidationError{Field: fe.Field, Reason: fe.Reason}
	}

	m, err := r.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	other, ok := m.OtherParticipant(userID)
	if !ok {
		return nil, &NotAuthorizedError{MatchID: m.ID, Actor: userID, Action: "give feedback on"}
	}
	if m.Status != models.MatchStatusCompleted {
		return nil, &InvalidStateError{MatchID: m.ID, From: m.Status, To: models.MatchStatusCompleted}
	}

	fb := &models.MatchFeedback{
		ID:                 uuid.New(),
		MatchID:            m.ID,
		UserID:             userID,
		QualityRating:      in.QualityRating,
		ConversationRating: in.ConversationRating,
		RelevanceRating:    in.RelevanceRating,
		WouldMeetAgain:     in.WouldMeetAgain,
		Notes:              sanitized(in.Notes),
		Tags:               sanitized(in.Tags),
	}
	encoded := fb.EncodeRatings()
	event := models.NewInteractionEvent(userID, &other, models.InteractionFeedbackGiven, &encoded)

	res, err := r.feedback.UpsertAndRecalibrate(ctx, fb, event)
	if err != nil {
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}
	return res, nil
}

// ListFeedback returns the feedback rows of a match
func (r *FeedbackRecalibrator) ListFeedback(ctx context.Context, matchID uuid.UUID) ([]*models.MatchFeedback, error) {
	if _, err := r.matches.GetByID(ctx, matchID); err != nil {
		return nil, err
	}
	return r.feedback.ListByMatch(ctx, matchID)
}

func sanitized(s *string) *string {
	if s == nil {
		return nil
	}
	v := validation.SanitizeText(*s)
	if v == "" {
		return nil
	}
	return &v
}
