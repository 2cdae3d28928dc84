package store

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pixelforge/imagegen-api/internal/domain"
)

// TaskStore is the process-lifetime registry of generation tasks. All
// access to the internal map is serialized by a single mutex; readers
// only ever see fully-updated record copies.
//
// On the transition into the completed state the record is handed off
// to the HistoryStore. The hand-off happens after the registry's
// critical section has been released, so the two stores' locks stay
// independent.
type TaskStore struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]*domain.TaskRecord
	history *HistoryStore
	logger  *slog.Logger
}

// NewTaskStore creates a TaskStore. If history is non-nil, its entries
// are reconstructed into the registry as completed tasks so that past
// generations remain queryable across restarts, and every subsequent
// completed task is appended to it.
func NewTaskStore(history *HistoryStore, logger *slog.Logger) *TaskStore {
	s := &TaskStore{
		tasks:   make(map[uuid.UUID]*domain.TaskRecord),
		history: history,
		logger:  logger.With("component", "task_store"),
	}

	if history != nil {
		for _, entry := range history.Entries() {
			s.tasks[entry.TaskID] = taskFromHistory(entry)
		}
	}

	return s
}

// taskFromHistory rebuilds a completed TaskRecord from a persisted
// history entry. Reconstructed tasks are indistinguishable from freshly
// completed ones to readers.
func taskFromHistory(entry *domain.HistoryEntry) *domain.TaskRecord {
	createdAt := entry.CreatedAt
	images := make([]string, len(entry.Images))
	copy(images, entry.Images)

	parameters := make(map[string]any, len(entry.Parameters))
	for k, v := range entry.Parameters {
		parameters[k] = v
	}

	return &domain.TaskRecord{
		ID:             entry.TaskID,
		Type:           entry.Type,
		Status:         domain.TaskStatusCompleted,
		Prompt:         entry.Prompt,
		NegativePrompt: entry.NegativePrompt,
		Parameters:     parameters,
		Images:         images,
		Progress:       100,
		CreatedAt:      createdAt,
		CompletedAt:    &createdAt,
	}
}

// CreateTask allocates a fresh pending task and inserts it into the
// registry.
func (s *TaskStore) CreateTask(
	taskType domain.TaskType,
	prompt string,
	negativePrompt string,
	parameters map[string]any,
) (*domain.TaskRecord, error) {
	task, err := domain.NewTaskRecord(taskType, prompt, negativePrompt, parameters)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tasks[task.ID] = task
	cp := task.Clone()
	s.mu.Unlock()

	return cp, nil
}

// SetProcessing transitions a pending task into the processing state.
// The transition is ignored for tasks that already left the pending
// state; the current record is returned either way.
func (s *TaskStore) SetProcessing(id uuid.UUID) (*domain.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	if !task.MarkProcessing() {
		s.logger.Debug("ignoring processing transition", "task_id", id, "status", task.Status)
	}

	return task.Clone(), nil
}

// CompleteTask transitions a task into the completed state and hands
// the record off to the history store. A task that is already terminal
// is left untouched and the hand-off is skipped, guarding against
// duplicate history entries from racing completions.
func (s *TaskStore) CompleteTask(id uuid.UUID, images []string) (*domain.TaskRecord, error) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	transitioned := task.Complete(images)
	cp := task.Clone()
	s.mu.Unlock()

	if !transitioned {
		s.logger.Debug("ignoring complete transition", "task_id", id, "status", cp.Status)
		return cp, nil
	}

	if s.history != nil {
		s.history.AppendCompleted(cp)
	}

	return cp, nil
}

// FailTask transitions a task into the failed state with the given
// error message. Failed tasks produce no history entry. A task that is
// already terminal is left untouched.
func (s *TaskStore) FailTask(id uuid.UUID, message string) (*domain.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	if !task.Fail(message) {
		s.logger.Debug("ignoring fail transition", "task_id", id, "status", task.Status)
	}

	return task.Clone(), nil
}

// GetTask returns a copy of the task with the given ID.
func (s *TaskStore) GetTask(id uuid.UUID) (*domain.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	return task.Clone(), nil
}

// ListTasks returns copies of every task, newest first.
func (s *TaskStore) ListTasks() []*domain.TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]*domain.TaskRecord, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task.Clone())
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	return tasks
}
