package matching

import (
	"strings"

	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
)

// Factor names used in score breakdowns
const (
	FactorIndustry   = "industry"
	FactorSkills     = "skills"
	FactorInterests  = "interests"
	FactorExperience = "experience"
	FactorHistory    = "history"
	FactorDiversity  = "diversity"
)

// Factor weights; they sum to 1.0
const (
	WeightIndustry   = 0.20
	WeightSkills     = 0.25
	WeightInterests  = 0.25
	WeightExperience = 0.15
	WeightHistory    = 0.10
	WeightDiversity  = 0.05
)

const (
	// MinCompatibility is the eligibility threshold; a candidate must score strictly above it
	MinCompatibility = 0.3

	industryUnknown    = 0.3
	experienceBaseline = 0.7
	historyStep        = 0.1
	historyCap         = 0.3
	diversityNovel     = 0.8
	diversitySeen      = 0.2
)

// History is the ledger context for one (user, candidate) pair
type History struct {
	// PairEvents are events exchanged between the user and the candidate
	PairEvents []*models.InteractionEvent
	// RecentUserEvents are the user's own events inside the diversity window
	RecentUserEvents []*models.InteractionEvent
}

// ScoreResult is a candidate's score with its per-factor breakdown
type ScoreResult struct {
	CandidateID uuid.UUID          `json:"candidate_id"`
	Score       float64            `json:"score"`
	Factors     map[string]float64 `json:"factors"`
}

// Eligible reports whether the score clears the compatibility threshold
func (r ScoreResult) Eligible() bool {
	return r.Score > MinCompatibility
}

// Scorer combines attribute similarity, profile state and ledger history into a [0,1] score.
// It performs no I/O and is safe for concurrent use.
type Scorer struct {
	vectorizer Vectorizer
}

// NewScorer creates a scorer; a nil vectorizer selects TokenVectorizer
func NewScorer(v Vectorizer) *Scorer {
	if v == nil {
		v = NewTokenVectorizer()
	}
	return &Scorer{vectorizer: v}
}

// Score computes the compatibility of candidate for user. candidatePrefs may be
// nil; no current factor reads it.
func (s *Scorer) Score(user, candidate *models.User, candidatePrefs *models.PreferenceProfile, history History) ScoreResult {
	factors := map[string]float64{
		FactorIndustry:   industryFactor(user.IndustryText(), candidate.IndustryText()),
		FactorSkills:     s.similarity(user.SkillsText(), candidate.SkillsText()),
		FactorInterests:  s.similarity(user.InterestsText(), candidate.InterestsText()),
		FactorExperience: experienceFactor(user.ExperienceLevel, candidate.ExperienceLevel),
		FactorHistory:    historyFactor(user.ID, candidate.ID, history.PairEvents),
		FactorDiversity:  diversityFactor(candidate.IndustryText(), history.RecentUserEvents),
	}

	score := factors[FactorIndustry]*WeightIndustry +
		factors[FactorSkills]*WeightSkills +
		factors[FactorInterests]*WeightInterests +
		factors[FactorExperience]*WeightExperience +
		factors[FactorHistory]*WeightHistory +
		factors[FactorDiversity]*WeightDiversity

	return ScoreResult{
		CandidateID: candidate.ID,
		Score:       clamp01(score),
		Factors:     factors,
	}
}

func (s *Scorer) similarity(a, b string) float64 {
	return s.vectorizer.Similarity(s.vectorizer.Vectorize(a), s.vectorizer.Vectorize(b))
}

func industryFactor(a, b string) float64 {
	if a == "" || b == "" {
		return industryUnknown
	}
	if strings.EqualFold(a, b) {
		return 1.0
	}
	return 0
}

// experienceFactor is a flat baseline with a bonus for an exact level match.
// Only levels from the user records count; profile levels may be seeded defaults.
func experienceFactor(a, b *models.ExperienceLevel) float64 {
	if a != nil && b != nil && a.Valid() && *a == *b {
		return 1.0
	}
	return experienceBaseline
}

func historyFactor(userID, candidateID uuid.UUID, events []*models.InteractionEvent) float64 {
	count := 0
	for _, e := range events {
		if e.Type != models.InteractionProfileView && e.Type != models.InteractionMatchAccepted {
			continue
		}
		if e.Involves(userID, candidateID) {
			count++
		}
	}
	return min(historyCap, historyStep*float64(count))
}

// diversityFactor rewards candidates whose industry does not show up in the
// value payload of the user's recent events.
func diversityFactor(candidateIndustry string, recent []*models.InteractionEvent) float64 {
	if candidateIndustry == "" {
		return diversityNovel
	}
	needle := strings.ToLower(candidateIndustry)
	for _, e := range recent {
		if e.Value != nil && strings.Contains(strings.ToLower(*e.Value), needle) {
			return diversitySeen
		}
	}
	return diversityNovel
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
