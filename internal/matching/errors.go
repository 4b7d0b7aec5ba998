package matching

import (
	"errors"
	"fmt"

	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates a referenced user, match or profile does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicateMatch indicates a pending match already exists for the pair
	ErrDuplicateMatch = errors.New("duplicate match")
	// ErrNotAuthorized indicates the actor is not a legitimate party to the match
	ErrNotAuthorized = errors.New("not authorized")
	// ErrInvalidState indicates the transition is not legal from the current state
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation indicates malformed input
	ErrValidation = errors.New("validation failed")
)

// NotFoundError reports a missing entity
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is matches ErrNotFound
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFound builds a NotFoundError for an entity id
func NewNotFound(entity string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// DuplicateMatchError reports an existing pending match for the unordered pair
type DuplicateMatchError struct {
	User1ID    uuid.UUID
	User2ID    uuid.UUID
	ExistingID uuid.UUID
}

func (e *DuplicateMatchError) Error() string {
	if e.ExistingID == uuid.Nil {
		return fmt.Sprintf("pending match already exists between %s and %s", e.User1ID, e.User2ID)
	}
	return fmt.Sprintf("pending match %s already exists between %s and %s", e.ExistingID, e.User1ID, e.User2ID)
}

// Is matches ErrDuplicateMatch
func (e *DuplicateMatchError) Is(target error) bool { return target == ErrDuplicateMatch }

// NotAuthorizedError reports an actor acting on a match it may not act on
type NotAuthorizedError struct {
	MatchID uuid.UUID
	Actor   uuid.UUID
	Action  string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("user %s may not %s match %s", e.Actor, e.Action, e.MatchID)
}

// Is matches ErrNotAuthorized
func (e *NotAuthorizedError) Is(target error) bool { return target == ErrNotAuthorized }

// InvalidStateError reports an illegal transition
type InvalidStateError struct {
	MatchID uuid.UUID
	From    models.MatchStatus
	To      models.MatchStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("match %s cannot move from %s to %s", e.MatchID, e.From, e.To)
}

// Is matches ErrInvalidState
func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// ValidationError reports a malformed input field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
