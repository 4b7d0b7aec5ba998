package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/coffee-match/internal/models"
	"github.com/benvon/coffee-match/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults applied to a freshly seeded profile
const (
	DefaultCommunicationStyle = models.CommunicationCollaborative
	DefaultMeetingPreference  = models.MeetingNone
	DefaultExperienceLevel    = models.ExperienceMid
	DefaultMatchingRadius     = models.MaxMatchingRadius
)

// PreferenceUpdate carries optional changes to stated preferences.
// Vectors are always re-derived from the current profile text.
type PreferenceUpdate struct {
	CommunicationStyle *models.CommunicationStyle `json:"communication_style,omitempty" validate:"omitempty,communication_style"`
	MeetingPreference  *models.MeetingPreference  `json:"meeting_preference,omitempty" validate:"omitempty,meeting_preference"`
	ExperienceLevel    *models.ExperienceLevel    `json:"experience_level,omitempty" validate:"omitempty,experience_level"`
	MatchingRadius     *int                       `json:"matching_radius,omitempty" validate:"omitempty,min=0,max=100"`
}

// PreferenceService owns the lazily created per-user preference profile
type PreferenceService struct {
	store      PreferenceStore
	users      UserReader
	vectorizer Vectorizer
	logger     *zap.Logger
	now        func() time.Time
}

// NewPreferenceService creates a preference service
func NewPreferenceService(store PreferenceStore, users UserReader, v Vectorizer, logger *zap.Logger) *PreferenceService {
	if v == nil {
		v = NewTokenVectorizer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{
		store:      store,
		users:      users,
		vectorizer: v,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Seed builds the default profile for user without persisting it
func (s *PreferenceService) Seed(user *models.User) *models.PreferenceProfile {
	now := s.now()
	p := &models.PreferenceProfile{
		ID:                 uuid.New(),
		UserID:             user.ID,
		CommunicationStyle: DefaultCommunicationStyle,
		MeetingPreference:  DefaultMeetingPreference,
		ExperienceLevel:    DefaultExperienceLevel,
		MatchingRadius:     DefaultMatchingRadius,
		LastUpdated:        now,
		CreatedAt:          now,
	}
	s.revectorize(p, user)
	return p
}

// GetOrCreate returns the stored profile for user, creating a seeded one on first access.
// An existing profile is returned unchanged.
func (s *PreferenceService) GetOrCreate(ctx context.Context, user *models.User) (*models.PreferenceProfile, error) {
	existing, err := s.store.GetByUserID(ctx, user.ID)
	if err == nil {
		existing.EnsureVectors()
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get preference profile: %w", err)
	}

	created, err := s.store.CreateIfAbsent(ctx, s.Seed(user))
	if err != nil {
		return nil, fmt.Errorf("failed to create preference profile: %w", err)
	}
	created.EnsureVectors()

	s.logger.Debug("preference_profile_created",
		zap.String("user_id", user.ID.String()),
		zap.Int("skill_tokens", created.SkillVector.Keys()),
		zap.Int("interest_tokens", created.InterestVector.Keys()),
	)
	return created, nil
}

// Update re-derives the vectors of userID's profile from the current profile text
// and applies the stated preference changes in upd.
func (s *PreferenceService) Update(ctx context.Context, userID uuid.UUID, upd PreferenceUpdate) (*models.PreferenceProfile, error) {
	if fe := validation.Struct(upd); fe != nil {
		return nil, &ValidationError{Field: fe.Field, Reason: fe.Reason}
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile, err := s.GetOrCreate(ctx, user)
	if err != nil {
		return nil, err
	}

	updated := profile.Clone()
	s.revectorize(updated, user)
	if upd.CommunicationStyle != nil {
		updated.CommunicationStyle = *upd.CommunicationStyle
	}
	if upd.MeetingPreference != nil {
		updated.MeetingPreference = *upd.MeetingPreference
	}
	if upd.ExperienceLevel != nil {
		updated.ExperienceLevel = *upd.ExperienceLevel
	}
	if upd.MatchingRadius != nil {
		updated.MatchingRadius = *upd.MatchingRadius
	}
	updated.LastUpdated = s.now()

	if err := s.store.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update preference profile: %w", err)
	}

	s.logger.Info("preference_profile_updated",
		zap.String("user_id", userID.String()),
		zap.Int("matching_radius", updated.MatchingRadius),
	)
	return updated, nil
}

// Refresh re-derives userID's vectors without changing stated preferences
func (s *PreferenceService) Refresh(ctx context.Context, userID uuid.UUID) (*models.PreferenceProfile, error) {
	return s.Update(ctx, userID, PreferenceUpdate{})
}

// ProfilesFor returns stored profiles for the given users. Users without a
// stored profile get a seeded one that is not persisted; persistence happens
// only on a user's own scoring request.
func (s *PreferenceService) ProfilesFor(ctx context.Context, users []*models.User) (map[uuid.UUID]*models.PreferenceProfile, error) {
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	stored, err := s.store.ListByUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list preference profiles: %w", err)
	}

	out := make(map[uuid.UUID]*models.PreferenceProfile, len(users))
	for _, u := range users {
		if p, ok := stored[u.ID]; ok {
			p.EnsureVectors()
			out[u.ID] = p
			continue
		}
		out[u.ID] = s.Seed(u)
	}
	return out, nil
}

func (s *PreferenceService) revectorize(p *models.PreferenceProfile, user *models.User) {
	p.SkillVector = s.vectorizer.Vectorize(user.SkillsText())
	p.InterestVector = s.vectorizer.Vectorize(user.InterestsText())
	p.IndustryVector = s.vectorizer.Vectorize(user.IndustryText())
	p.EnsureVectors()
}
