package workflow

import "context"

// StateMachine tracks the current state of one voucher and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is configured for the current state
	CanFire(trigger Trigger) bool

	// Fire executes the trigger and moves to the target state
	Fire(ctx context.Context, trigger Trigger) (Transition, error)

	// PermittedTriggers returns the triggers configured for the current state
	PermittedTriggers() []Trigger
}

// Transition records a fired trigger
type Transition struct {
	From    State
	To      State
	Trigger Trigger
}
