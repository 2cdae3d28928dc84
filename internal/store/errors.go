package store

import "errors"

// Common store errors. Callers should use errors.Is for comparison.
var (
	// ErrTaskNotFound is returned when a task with the given ID does
	// not exist in the registry.
	ErrTaskNotFound = errors.New("task not found")

	// ErrEntryNotFound is returned when no history entry exists for
	// the given task ID.
	ErrEntryNotFound = errors.New("history entry not found")
)
