package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// RunnerConfig holds configuration for the task runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount: 4,
		QueueSize:   100,
	}
}

// Runner executes background tasks on a bounded worker pool. Tasks own
// their lifecycle reporting; the runner only schedules, executes and
// logs. The request-handling path submits and returns immediately, it
// never blocks on completion.
type Runner struct {
	queue      *TaskQueue
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
}

// NewRunner creates a new Runner
func NewRunner(config RunnerConfig, logger *slog.Logger) *Runner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultRunnerConfig().WorkerCount
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultRunnerConfig().QueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		queue:      NewTaskQueue(config.QueueSize, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
	}
}

// Submit adds a task to the queue. The context is accepted for
// interface symmetry; scheduling itself never blocks.
func (r *Runner) Submit(_ context.Context, task Task) error {
	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Start launches the worker pool.
func (r *Runner) Start() {
	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
}

// Stop gracefully shuts down the runner: no further submissions are
// accepted and the workers drain what is already queued.
func (r *Runner) Stop() {
	r.queue.Close()
	r.wg.Wait()
	r.cancelFunc()
}

// worker processes tasks from the queue until it is closed and drained.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for task := range r.queue.GetChannel() {
		logger := r.logger.With(
			"task_id", task.ID(),
			"task_type", task.Type(),
			"worker_id", id,
		)

		logger.Info("processing task")

		if err := task.Execute(r.ctx); err != nil {
			logger.Error("task execution failed", "error", err)
			continue
		}

		logger.Info("task finished")
	}

	r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
}
