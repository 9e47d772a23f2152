package domain

import "errors"

var (
	// ErrInvalidState is returned when a slot is chosen before a date, or
	// when a flow action arrives in a step that does not accept it.
	ErrInvalidState = errors.New("invalid booking state")
	// ErrIncompleteSelection is returned by confirm without both a date and a slot.
	ErrIncompleteSelection = errors.New("booking requires a date and a time slot")
	ErrUnknownSlot         = errors.New("unknown time slot")
)

// PersistenceError wraps a failure to hand a confirmed booking to the user store.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "booking persistence failed: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
