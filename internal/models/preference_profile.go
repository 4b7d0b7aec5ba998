package models

import (
	"time"

	"github.com/google/uuid"
)

// CommunicationStyle is a user's stated conversation style
type CommunicationStyle string

const (
	CommunicationDirect        CommunicationStyle = "DIRECT"
	CommunicationCollaborative CommunicationStyle = "COLLABORATIVE"
	CommunicationAnalytical    CommunicationStyle = "ANALYTICAL"
	CommunicationExpressive    CommunicationStyle = "EXPRESSIVE"
	CommunicationSupportive    CommunicationStyle = "SUPPORTIVE"
)

// Valid reports whether s is a known communication style
func (s CommunicationStyle) Valid() bool {
	switch s {
	case CommunicationDirect, CommunicationCollaborative, CommunicationAnalytical, CommunicationExpressive, CommunicationSupportive:
		return true
	}
	return false
}

// MeetingPreference is how a user prefers to meet
type MeetingPreference string

const (
	MeetingVirtual  MeetingPreference = "VIRTUAL"
	MeetingInPerson MeetingPreference = "IN_PERSON"
	MeetingHybrid   MeetingPreference = "HYBRID"
	MeetingNone     MeetingPreference = "NONE"
)

// Valid reports whether p is a known meeting preference
func (p MeetingPreference) Valid() bool {
	switch p {
	case MeetingVirtual, MeetingInPerson, MeetingHybrid, MeetingNone:
		return true
	}
	return false
}

const (
	// MinMatchingRadius and MaxMatchingRadius bound the diversity knob
	MinMatchingRadius = 0
	MaxMatchingRadius = 100
)

// TokenVector maps a normalized token to its accumulated weight
type TokenVector map[string]float64

// Keys returns the number of distinct tokens
func (v TokenVector) Keys() int {
	return len(v)
}

// PreferenceProfile is the derived matching state kept for one user
type PreferenceProfile struct {
	ID                 uuid.UUID          `json:"id"`
	UserID             uuid.UUID          `json:"user_id"`
	SkillVector        TokenVector        `json:"skill_vector"`
	InterestVector     TokenVector        `json:"interest_vector"`
	IndustryVector     TokenVector        `json:"industry_vector"`
	CommunicationStyle CommunicationStyle `json:"communication_style"`
	MeetingPreference  MeetingPreference  `json:"meeting_preference"`
	ExperienceLevel    ExperienceLevel    `json:"experience_level"`
	MatchingRadius     int                `json:"matching_radius"`
	LastUpdated        time.Time          `json:"last_updated"`
	CreatedAt          time.Time          `json:"created_at"`
}

// EnsureVectors replaces nil vectors with empty ones
func (p *PreferenceProfile) EnsureVectors() {
	if p.SkillVector == nil {
		p.SkillVector = TokenVector{}
	}
	if p.InterestVector == nil {
		p.InterestVector = TokenVector{}
	}
	if p.IndustryVector == nil {
		p.IndustryVector = TokenVector{}
	}
}

// Clone returns a deep copy of the profile
func (p *PreferenceProfile) Clone() *PreferenceProfile {
	c := *p
	c.SkillVector = cloneVector(p.SkillVector)
	c.InterestVector = cloneVector(p.InterestVector)
	c.IndustryVector = cloneVector(p.IndustryVector)
	return &c
}

func cloneVector(v TokenVector) TokenVector {
	out := make(TokenVector, len(v))
	for k, w := range v {
		out[k] = w
	}
	return out
}
