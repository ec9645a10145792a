// Package supportcase contains the pure business logic for the hub side of a
// case: status lifecycle and SLA evaluation.
// This is part of the Functional Core - no I/O, only pure functions.
package supportcase

import (
	"fmt"
	"time"
)

// Status is a case's position in the hub workflow.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// IsActive reports whether the case still needs staff attention.
func (s Status) IsActive() bool {
	return s == StatusOpen || s == StatusInProgress
}

var allowedTransitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusResolved},
	StatusInProgress: {StatusResolved, StatusOpen},
	StatusResolved:   {StatusClosed, StatusOpen},
	StatusClosed:     {},
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// TransitionContext provides context for status transition guards.
type TransitionContext struct {
	CaseID string
	From   Status
	To     Status
}

// CanTransition evaluates whether a case can move between statuses.
// Rules:
// - target status must be known
// - open -> in_progress -> resolved -> closed, open -> resolved, and reopening
// - closed cases are final
func CanTransition(ctx TransitionContext) GuardResult {
	if !ctx.To.Valid() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("unknown status %q", ctx.To),
		}
	}
	if ctx.From == ctx.To {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("case %s is already %s", ctx.CaseID, ctx.To),
		}
	}
	for _, next := range allowedTransitions[ctx.From] {
		if next == ctx.To {
			return GuardResult{Allowed: true}
		}
	}
	return GuardResult{
		Allowed: false,
		Reason:  fmt.Sprintf("cannot move case %s from %s to %s", ctx.CaseID, ctx.From, ctx.To),
	}
}

// AssignContext provides context for assignment guards.
type AssignContext struct {
	CaseID   string
	Status   Status
	Assignee string
}

// CanAssign evaluates whether a case can be (re)assigned.
func CanAssign(ctx AssignContext) GuardResult {
	if ctx.Status == StatusClosed {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("case %s is closed", ctx.CaseID),
		}
	}
	return GuardResult{Allowed: true}
}

// StatusTransitionResult captures the new status and the timestamps it sets.
type StatusTransitionResult struct {
	NewStatus     Status
	ResolvedAt    *time.Time // Set when the case becomes resolved
	ClearResolved bool       // Reopening clears ResolvedAt
}

// ApplyStatusTransition applies a status transition and returns the result.
// The caller should pass the current time to enable testing.
func ApplyStatusTransition(newStatus Status, now time.Time) StatusTransitionResult {
	result := StatusTransitionResult{NewStatus: newStatus}
	switch newStatus {
	case StatusResolved:
		result.ResolvedAt = &now
	case StatusOpen, StatusInProgress:
		result.ClearResolved = true
	}
	return result
}

// InitialStatus returns the status of a newly emitted case.
func InitialStatus() Status {
	return StatusOpen
}
