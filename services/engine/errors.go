package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a user, battle or achievement does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by stores when an optimistic precondition no
	// longer holds at write time.
	ErrConflict = errors.New("concurrent modification")
)

// InvalidStateError rejects an operation that the current state does not
// allow. Nothing is mutated when it is returned.
type InvalidStateError struct {
	Op     string
	Reason string
	// Forbidden marks errors caused by the caller's identity rather than the
	// entity's status.
	Forbidden bool
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func invalidState(op, format string, args ...interface{}) error {
	return &InvalidStateError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func forbidden(op, format string, args ...interface{}) error {
	return &InvalidStateError{Op: op, Reason: fmt.Sprintf(format, args...), Forbidden: true}
}

// EvaluationError reports a malformed condition or unexpected data for one
// item. Engines log and skip it.
type EvaluationError struct {
	AchievementID string
	Reason        string
}

func (e *EvaluationError) Error() string {
	if e.AchievementID == "" {
		return "evaluation: " + e.Reason
	}
	return fmt.Sprintf("evaluation of %s: %s", e.AchievementID, e.Reason)
}

// IsInvalidState reports whether err is an *InvalidStateError.
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}
