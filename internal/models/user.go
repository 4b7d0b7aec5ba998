package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExperienceLevel represents a user's seniority
type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "ENTRY"
	ExperienceMid       ExperienceLevel = "MID"
	ExperienceSenior    ExperienceLevel = "SENIOR"
	ExperienceExecutive ExperienceLevel = "EXECUTIVE"
	ExperienceExpert    ExperienceLevel = "EXPERT"
)

// Valid reports whether l is a known experience level
func (l ExperienceLevel) Valid() bool {
	switch l {
	case ExperienceEntry, ExperienceMid, ExperienceSenior, ExperienceExecutive, ExperienceExpert:
		return true
	}
	return false
}

// User holds the profile attributes the matching engine reads.
// The record is owned by the user-management service.
type User struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Industry        *string          `json:"industry,omitempty"`
	Skills          *string          `json:"skills,omitempty"`
	Interests       *string          `json:"interests,omitempty"`
	ExperienceLevel *ExperienceLevel `json:"experience_level,omitempty"`
	CompanyID       *uuid.UUID       `json:"company_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// IndustryText returns the trimmed industry or "" when unset
func (u *User) IndustryText() string {
	return deref(u.Industry)
}

// SkillsText returns the raw skills text or "" when unset
func (u *User) SkillsText() string {
	return deref(u.Skills)
}

// InterestsText returns the raw interests text or "" when unset
func (u *User) InterestsText() string {
	return deref(u.Interests)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
