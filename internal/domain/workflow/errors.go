package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document, template or user does not exist
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the principal may not perform the operation
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState is returned when the current status does not permit the operation
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidInput is returned when a request fails validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoEligibleStep is returned when no pending step is actionable by the principal
	ErrNoEligibleStep = errors.New("no eligible approval step")

	// ErrInvalidTransition is returned when a trigger is not permitted from the current state
	ErrInvalidTransition = fmt.Errorf("%w: transition not permitted", ErrInvalidState)

	// ErrGuardFailed is returned when every guard for a trigger rejects the transition
	ErrGuardFailed = fmt.Errorf("%w: guard condition failed", ErrInvalidState)
)

// ErrorKind classifies an error into a short label for logs and metrics
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNoEligibleStep):
		return "no_eligible_step"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
