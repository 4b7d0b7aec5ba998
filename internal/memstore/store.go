// Package memstore keeps every engine entity in process memory.
// It backs tests and operator dry runs; all methods are safe for concurrent use.
package memstore

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
)

// Store implements every persistence interface of the matching engine
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*models.User
	profiles map[uuid.UUID]*models.PreferenceProfile
	events   []*models.InteractionEvent
	matches  map[uuid.UUID]*models.Match
	feedback map[uuid.UUID]map[uuid.UUID]*models.MatchFeedback
	now      func() time.Time
}

var (
	_ matching.UserReader        = (*Store)(nil)
	_ matching.PreferenceStore   = (*Store)(nil)
	_ matching.InteractionLedger = (*Store)(nil)
	_ matching.MatchStore        = (*Store)(nil)
	_ matching.FeedbackStore     = (*Store)(nil)
)

// New creates an empty store
func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*models.User),
		profiles: make(map[uuid.UUID]*models.PreferenceProfile),
		matches:  make(map[uuid.UUID]*models.Match),
		feedback: make(map[uuid.UUID]map[uuid.UUID]*models.MatchFeedback),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Stores returns the store in every engine role
func (s *Store) Stores() matching.Stores {
	return matching.Stores{
		Users:        s,
		Preferences:  s,
		Interactions: s,
		Matches:      s,
		Feedback:     s,
	}
}

// PutUser inserts or replaces a user record
func (s *Store) PutUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.users[u.ID] = &c
}

// Events returns a copy of the ledger in append order
func (s *Store) Events() []*models.InteractionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.InteractionEvent, 0, len(s.events))
	for _, e := range s.events {
		c := *e
		out = append(out, &c)
	}
	return out
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, matching.NewNotFound("user", id)
	}
	c := *u
	return &c, nil
}

// ListCandidates returns users ordered by id
func (s *Store) ListCandidates(_ context.Context, excludeID uuid.UUID, limit int) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for id, u := range s.users {
		if id == excludeID {
			continue
		}
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetByUserID(_ context.Context, userID uuid.UUID) (*models.PreferenceProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, matching.NewNotFound("preference profile", userID)
	}
	return p.Clone(), nil
}

func (s *Store) ListByUserIDs(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*models.PreferenceProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]*models.PreferenceProfile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok {
			out[id] = p.Clone()
		}
	}
	return out, nil
}

func (s *Store) CreateIfAbsent(_ context.Context, profile *models.PreferenceProfile) (*models.PreferenceProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[profile.UserID]; ok {
		return existing.Clone(), nil
	}
	s.profiles[profile.UserID] = profile.Clone()
	return profile.Clone(), nil
}

func (s *Store) Update(_ context.Context, profile *models.PreferenceProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.profiles[profile.UserID]
	if !ok {
		return matching.NewNotFound("preference profile", profile.UserID)
	}
	c := profile.Clone()
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	s.profiles[profile.UserID] = c
	return nil
}

func (s *Store) Append(_ context.Context, event *models.InteractionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *event
	s.events = append(s.events, &c)
	return nil
}

func (s *Store) ListInvolving(_ context.Context, userID uuid.UUID, since time.Time) ([]*models.InteractionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.InteractionEvent
	for _, e := range s.events {
		if e.CreatedAt.Before(since) {
			continue
		}
		if e.UserID == userID || (e.TargetUserID != nil && *e.TargetUserID == userID) {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) Create(_ context.Context, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.pendingLocked(m.User1ID, m.User2ID); existing != nil {
		return &matching.DuplicateMatchError{User1ID: m.User1ID, User2ID: m.User2ID, ExistingID: existing.ID}
	}
	c := *m
	s.matches[m.ID] = &c
	return nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, matching.NewNotFound("match", id)
	}
	c := *m
	return &c, nil
}

func (s *Store) FindPending(_ context.Context, a, b uuid.UUID) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.pendingLocked(a, b)
	if m == nil {
		return nil, &matching.NotFoundError{Entity: "pending match", ID: a.String() + "/" + b.String()}
	}
	c := *m
	return &c, nil
}

func (s *Store) pendingLocked(a, b uuid.UUID) *models.Match {
	for _, m := range s.matches {
		if m.Status == models.MatchStatusPending && m.SamePair(a, b) {
			return m
		}
	}
	return nil
}

// ListByUser returns userID's matches, newest first
func (s *Store) ListByUser(_ context.Context, userID uuid.UUID, statuses []models.MatchStatus) ([]*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Match
	for _, m := range s.matches {
		if m.HasParticipant(userID) && statusIn(m.Status, statuses) {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (s *Store) PairedUserIDs(_ context.Context, userID uuid.UUID, statuses []models.MatchStatus) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, m := range s.matches {
		if !statusIn(m.Status, statuses) {
			continue
		}
		other, ok := m.OtherParticipant(userID)
		if !ok {
			continue
		}
		if _, dup := seen[other]; !dup {
			seen[other] = struct{}{}
			out = append(out, other)
		}
	}
	return out, nil
}

func (s *Store) CountByStatus(_ context.Context, userID uuid.UUID, status models.MatchStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.matches {
		if m.Status == status && m.HasParticipant(userID) {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.MatchStatus, update models.StatusUpdate, events []*models.InteractionEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return false, matching.NewNotFound("match", id)
	}
	if m.Status != from {
		return false, nil
	}
	m.Status = to
	m.UpdatedAt = s.now()
	if update.ScheduledTime != nil {
		t := *update.ScheduledTime
		m.ScheduledTime = &t
	}
	if update.Deactivate {
		m.IsActive = false
	}
	for _, e := range events {
		c := *e
		s.events = append(s.events, &c)
	}
	return true, nil
}

func (s *Store) UpsertAndRecalibrate(_ context.Context, fb *models.MatchFeedback, event *models.InteractionEvent) (*models.FeedbackResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[fb.MatchID]
	if !ok {
		return nil, matching.NewNotFound("match", fb.MatchID)
	}

	now := s.now()
	rows, ok := s.feedback[fb.MatchID]
	if !ok {
		rows = make(map[uuid.UUID]*models.MatchFeedback)
		s.feedback[fb.MatchID] = rows
	}
	stored := *fb
	stored.UpdatedAt = now
	if prev, ok := rows[fb.UserID]; ok {
		stored.ID = prev.ID
		stored.CreatedAt = prev.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	rows[fb.UserID] = &stored

	if event != nil {
		c := *event
		s.events = append(s.events, &c)
	}

	res := &models.FeedbackResult{Submissions: len(rows)}
	if len(rows) >= 2 {
		ratings := make([]int, 0, len(rows))
		for _, r := range rows {
			ratings = append(ratings, r.QualityRating)
		}
		realized := models.RealizedScore(ratings)
		m.CompatibilityScore = &realized
		m.UpdatedAt = now
		res.Recalibrated = true
		res.RealizedScore = &realized
	}

	fbCopy := stored
	matchCopy := *m
	res.Feedback = &fbCopy
	res.Match = &matchCopy
	return res, nil
}

// ListByMatch returns feedback rows ordered by creation time
func (s *Store) ListByMatch(_ context.Context, matchID uuid.UUID) ([]*models.MatchFeedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.MatchFeedback, 0, len(s.feedback[matchID]))
	for _, r := range s.feedback[matchID] {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func statusIn(s models.MatchStatus, statuses []models.MatchStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}
