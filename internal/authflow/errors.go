// File: internal/authflow/errors.go
package authflow

import (
	"errors"
	"fmt"
)

// Failure kinds of the login flow. Each fatal step surfaces exactly one of
// these; callers branch with errors.Is, never on message text.
var (
	// ErrNotFound is the Selector Resolution Strategy's verdict when every
	// locator for an intent has been tried without success. Non-fatal to the
	// strategy itself; the flow decides what it means.
	ErrNotFound = errors.New("no locator matched a usable element")

	ErrLoginFieldNotFound    = errors.New("login field not found")
	ErrPasswordFieldNotFound = errors.New("password field not found")
	ErrSubmitButtonNotFound  = errors.New("submit button not found")
	ErrTokenPayloadTimeout   = errors.New("timed out waiting for token payload")
)

// StepError ties a failure to the flow step it occurred in.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("login flow step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepErr(step string, err error) error {
	return &StepError{Step: step, Err: err}
}
