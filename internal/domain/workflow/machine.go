package workflow

import "context"

// StateMachine tracks the status of one document or step and validates transitions
type StateMachine interface {
	// Name identifies the lifecycle the machine models (document, step)
	Name() string

	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the current state
	PermittedTriggers() []Trigger
}
