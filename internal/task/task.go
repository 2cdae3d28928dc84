// Package task provides the background execution machinery for
// generation work: a buffered task queue, a worker-pool runner, and the
// GenerationTask that drives one task record through its lifecycle.
package task

import (
	"context"

	"github.com/google/uuid"
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// Submitter is the write side of the execution machinery, used by the
// orchestration layer to schedule work without awaiting it.
type Submitter interface {
	// Submit schedules a task for background execution. Returns an
	// error if the queue is full or closed.
	Submit(ctx context.Context, t Task) error
}
