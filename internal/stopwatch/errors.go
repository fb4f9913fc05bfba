package stopwatch

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is wrapped by every rejected state change.
var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionError reports an operation attempted from a state that does not allow it.
type TransitionError struct {
	Op   string
	From State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s: %s", e.Op, e.From, ErrInvalidTransition)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
