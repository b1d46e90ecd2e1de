package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted from the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a stored status is not a lifecycle state
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when every guard on a permitted trigger rejects it
	ErrGuardFailed = errors.New("guard condition failed")
)
