package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPermitted is returned by mutations when the store has no
	// bound identity
	ErrNotPermitted = errors.New("no active identity")

	// ErrPersistence marks a failed durable write. The in-memory change
	// has already been rolled back when this surfaces.
	ErrPersistence = errors.New("persistence failure")

	// ErrNotFound is returned when a medicine is not in the snapshot
	ErrNotFound = errors.New("medicine not found")
)

// ValidationError rejects a malformed medicine before it enters the store
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func persistenceErr(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
