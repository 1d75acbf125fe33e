package wizard

import (
	"fmt"
	"slices"
)

// InputError reports a rejected transition. Kind is one of the core sentinels
// (ErrInvalidSelection, ErrInvalidState, ErrInvalidAmount) and Options holds
// the labels valid in State, so the host can re-prompt.
type InputError struct {
	Kind    error
	State   State
	Input   string
	Options []string
}

func (e *InputError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("%v in %s", e.Kind, e.State)
	}
	return fmt.Sprintf("%v in %s: %q", e.Kind, e.State, e.Input)
}

func (e *InputError) Unwrap() error { return e.Kind }

func newInputError(kind error, state State, input string, options []string) *InputError {
	return &InputError{Kind: kind, State: state, Input: input, Options: slices.Clone(options)}
}
