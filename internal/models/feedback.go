package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MinRating and MaxRating bound every feedback rating
	MinRating = 1
	MaxRating = 5
)

// MatchFeedback is one participant's assessment of a completed match
type MatchFeedback struct {
	ID                 uuid.UUID `json:"id"`
	MatchID            uuid.UUID `json:"match_id"`
	UserID             uuid.UUID `json:"user_id"`
	QualityRating      int       `json:"quality_rating"`
	ConversationRating *int      `json:"conversation_rating,omitempty"`
	RelevanceRating    *int      `json:"relevance_rating,omitempty"`
	WouldMeetAgain     *bool     `json:"would_meet_again,omitempty"`
	Notes              *string   `json:"notes,omitempty"`
	Tags               *string   `json:"tags,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// EncodeRatings renders the ratings as the payload of a FEEDBACK_GIVEN event,
// e.g. "quality=4;conversation=5;again=true". Unset ratings are omitted.
func (f *MatchFeedback) EncodeRatings() string {
	parts := []string{fmt.Sprintf("quality=%d", f.QualityRating)}
	if f.ConversationRating != nil {
		parts = append(parts, fmt.Sprintf("conversation=%d", *f.ConversationRating))
	}
	if f.RelevanceRating != nil {
		parts = append(parts, fmt.Sprintf("relevance=%d", *f.RelevanceRating))
	}
	if f.WouldMeetAgain != nil {
		parts = append(parts, fmt.Sprintf("again=%t", *f.WouldMeetAgain))
	}
	return strings.Join(parts, ";")
}

// RealizedScore converts quality ratings into a compatibility value in [0,1]
func RealizedScore(qualityRatings []int) float64 {
	if len(qualityRatings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range qualityRatings {
		sum += r
	}
	avg := float64(sum) / float64(len(qualityRatings))
	return avg / float64(MaxRating)
}

// FeedbackResult is the outcome of an atomic feedback submission
type FeedbackResult struct {
	Feedback      *MatchFeedback `json:"feedback"`
	Match         *Match         `json:"match"`
	Submissions   int            `json:"submissions"`
	Recalibrated  bool           `json:"recalibrated"`
	RealizedScore *float64       `json:"realized_score,omitempty"`
}
