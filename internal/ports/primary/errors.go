package primary

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrCaseNotFound is returned when a case id is unknown.
	ErrCaseNotFound = errors.New("case not found")

	// ErrUnauthorized is returned when a staff token cannot be verified.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCaseTransition is returned when a hub change is not allowed
	// for the case's current status.
	ErrInvalidCaseTransition = errors.New("invalid case transition")
)

// LookupFailure means the order system failed or found no orders. The
// customer may retry with different identification.
type LookupFailure struct {
	Reason string
	Err    error
}

func (e *LookupFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order lookup failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("order lookup failed: %s", e.Reason)
}

func (e *LookupFailure) Unwrap() error { return e.Err }

// EmissionFailure means the case store could not record a finished
// negotiation. The outcome is kept on the session and emission alone can be retried.
type EmissionFailure struct {
	SessionID string
	Err       error
}

func (e *EmissionFailure) Error() string {
	return fmt.Sprintf("failed to emit case for session %s: %v", e.SessionID, e.Err)
}

func (e *EmissionFailure) Unwrap() error { return e.Err }

// Retryable reports that the caller may retry emission.
func (e *EmissionFailure) Retryable() bool { return true }
