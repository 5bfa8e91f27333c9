package catalog

import "errors"

var (
	// ErrInvalidOperation is returned synchronously when a precondition does
	// not hold. Nothing is mutated.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrPersistFailed is returned when the favorites store reports that a
	// write did not happen.
	ErrPersistFailed = errors.New("favorite store rejected the change")
)
