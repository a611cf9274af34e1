package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Sentinel errors - use with errors.Is()
// ---------------------------------------------------------------------------

var (
	// ErrStateConflict is returned when a transition is not valid from the
	// aggregate's current status.
	ErrStateConflict = errors.New("state conflict")

	// ErrInvalidStatusTransition is kept for callers that match on the older name.
	ErrInvalidStatusTransition = ErrStateConflict

	// ErrValidation is returned for malformed input. Nothing is mutated.
	ErrValidation = errors.New("validation failed")

	// ErrInvariantViolation is returned when an operation would break a
	// financial invariant of the aggregate.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrNotFound is returned by repositories when an aggregate does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification is returned when an optimistic version check fails.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// ---------------------------------------------------------------------------
// Structured errors - carry additional context
// ---------------------------------------------------------------------------

// StateConflictError describes a rejected transition.
type StateConflictError struct {
	Entity    string
	Operation string
	Status    string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s: cannot %s %s in status %s", ErrStateConflict, e.Operation, e.Entity, e.Status)
}

func (e *StateConflictError) Unwrap() error { return ErrStateConflict }

// NewStateConflict builds a StateConflictError.
func NewStateConflict(entity, operation, status string) error {
	return &StateConflictError{Entity: entity, Operation: operation, Status: status}
}

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation builds a ValidationError.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InvariantError explains which invariant the operation would have broken.
type InvariantError struct {
	Entity string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvariantViolation, e.Entity, e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// NewInvariantViolation builds an InvariantError.
func NewInvariantViolation(entity, detail string) error {
	return &InvariantError{Entity: entity, Detail: detail}
}

// ---------------------------------------------------------------------------
// Classification helpers
// ---------------------------------------------------------------------------

// IsClientError reports whether err was caused by the caller: bad input or a
// transition the current status does not allow.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrStateConflict) ||
		errors.Is(err, ErrInvariantViolation) ||
		errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether the same request may succeed if re-issued.
// Only lost optimistic-lock races qualify; the core itself never retries.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
