package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency. Callers match
// with errors.Is; the typed errors below unwrap to these sentinels.

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyRunning is returned when a user starts a timer while
	// another one of theirs is still running.
	ErrAlreadyRunning = errors.New("a time entry is already running; stop it first")

	// ErrNoActiveEntry is returned when a stop finds no running entry
	// for the user on the given task.
	ErrNoActiveEntry = errors.New("no running time entry to stop")

	// ErrValidation is the base of all ValidationError values.
	ErrValidation = errors.New("validation failed")

	// ErrPermissionDenied is the base of all PermissionDeniedError values.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConflict is returned when a concurrent update loses the race.
	// The whole request may be retried: nothing was committed.
	ErrConflict = errors.New("concurrent update conflict")
)

// ─── Typed Errors ───────────────────────────────────────────────────────────

// DenyReason says why an access check rejected the actor.
type DenyReason string

const (
	// NotAnOperator: the acting user has no linked operator identity.
	NotAnOperator DenyReason = "NotAnOperator"
	// NotOwner: a checked target was created by somebody else.
	NotOwner DenyReason = "NotOwner"
)

// PermissionDeniedError rejects an operation on access-control grounds.
type PermissionDeniedError struct {
	Reason DenyReason
}

func (e *PermissionDeniedError) Error() string {
	switch e.Reason {
	case NotAnOperator:
		return "permission denied: user is not linked to an operator"
	case NotOwner:
		return "permission denied: record belongs to another user"
	}
	return "permission denied"
}

func (e *PermissionDeniedError) Unwrap() error { return ErrPermissionDenied }

// Denied builds a PermissionDeniedError with the given reason.
func Denied(reason DenyReason) error {
	return &PermissionDeniedError{Reason: reason}
}

// ValidationError rejects a create/update whose required fields or
// referential preconditions are missing.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError.
func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
