package models

import (
	"math"
	"testing"
)

func TestMatchFeedback_EncodeRatings(t *testing.T) {
	t.Parallel()

	five, three := 5, 3
	yes := true

	tests := []struct {
		name string
		fb   MatchFeedback
		want string
	}{
		{name: "quality only", fb: MatchFeedback{QualityRating: 4}, want: "quality=4"},
		{
			name: "all ratings",
			fb:   MatchFeedback{QualityRating: 4, ConversationRating: &five, RelevanceRating: &three, WouldMeetAgain: &yes},
			want: "quality=4;conversation=5;relevance=3;again=true",
		},
		{name: "skips unset conversation", fb: MatchFeedback{QualityRating: 2, RelevanceRating: &three}, want: "quality=2;relevance=3"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.fb.EncodeRatings(); got != tt.want {
				t.Errorf("EncodeRatings() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRealizedScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{name: "none", ratings: nil, want: 0},
		{name: "both top", ratings: []int{5, 5}, want: 1},
		{name: "mixed", ratings: []int{4, 5}, want: 0.9},
		{name: "both lowest", ratings: []int{1, 1}, want: 0.2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := RealizedScore(tt.ratings); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RealizedScore(%v) = %v, want %v", tt.ratings, got, tt.want)
			}
		})
	}
}
