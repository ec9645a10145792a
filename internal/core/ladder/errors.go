package ladder

import "fmt"

// InvalidStateError is returned when a transition is attempted from a state
// that does not allow it. The session passed in is left untouched.
type InvalidStateError struct {
	Op     string
	State  State
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s in state %s: %s", e.Op, e.State, e.Reason)
}

func invalid(op string, s Session, reason string) error {
	return &InvalidStateError{Op: op, State: s.State, Reason: reason}
}
