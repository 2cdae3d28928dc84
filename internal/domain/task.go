package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a generation task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskType identifies the kind of generation a task performs
type TaskType string

// Supported task types
const (
	TaskTypeTextToImage  TaskType = "text2image"
	TaskTypeImageToImage TaskType = "image2image"
)

// Common validation errors for TaskRecord
var (
	ErrEmptyTaskID     = errors.New("task ID cannot be empty")
	ErrEmptyTaskPrompt = errors.New("task prompt cannot be empty")
	ErrInvalidTaskType = errors.New("invalid task type")
)

// Progress values set by the lifecycle transitions. Progress is advisory
// only; clients must not derive state from it.
const (
	progressPending    = 0
	progressProcessing = 10
	progressDone       = 100
)

// TaskRecord represents one submitted generation request and its
// in-flight or terminal outcome. Records are mutated only through the
// lifecycle methods below, which enforce the state machine:
//
//	pending -> processing -> completed | failed
//	pending -> completed | failed
//
// completed and failed are terminal; no further transitions are accepted.
type TaskRecord struct {
	ID             uuid.UUID      `json:"id"`
	Type           TaskType       `json:"type"`
	Status         TaskStatus     `json:"status"`
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negative_prompt,omitempty"`
	Parameters     map[string]any `json:"parameters"`
	Images         []string       `json:"images"`
	Progress       int            `json:"progress"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// NewTaskRecord creates a pending TaskRecord with a fresh ID and the
// creation timestamp set to the current time.
// Returns an error if validation fails.
func NewTaskRecord(
	taskType TaskType,
	prompt string,
	negativePrompt string,
	parameters map[string]any,
) (*TaskRecord, error) {
	if parameters == nil {
		parameters = map[string]any{}
	}

	task := &TaskRecord{
		ID:             uuid.New(),
		Type:           taskType,
		Status:         TaskStatusPending,
		Prompt:         prompt,
		NegativePrompt: negativePrompt,
		Parameters:     parameters,
		Images:         []string{},
		Progress:       progressPending,
		CreatedAt:      time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the TaskRecord has valid data.
func (t *TaskRecord) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.Prompt == "" {
		return ErrEmptyTaskPrompt
	}

	if !isValidTaskType(t.Type) {
		return ErrInvalidTaskType
	}

	return nil
}

// Terminal reports whether the task has reached a terminal state.
func (t *TaskRecord) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// MarkProcessing transitions the task from pending to processing and
// sets the advisory progress value. Returns false without mutating the
// record if the task is not pending.
func (t *TaskRecord) MarkProcessing() bool {
	if t.Status != TaskStatusPending {
		return false
	}

	t.Status = TaskStatusProcessing
	t.Progress = progressProcessing
	return true
}

// Complete transitions the task into the completed state, storing the
// generated image references and the completion timestamp. Returns false
// without mutating the record if the task is already terminal.
func (t *TaskRecord) Complete(images []string) bool {
	if t.Terminal() {
		return false
	}

	if images == nil {
		images = []string{}
	}

	now := time.Now().UTC()
	t.Status = TaskStatusCompleted
	t.Progress = progressDone
	t.Images = images
	t.CompletedAt = &now
	return true
}

// Fail transitions the task into the failed state, storing the error
// message and the completion timestamp. Returns false without mutating
// the record if the task is already terminal.
func (t *TaskRecord) Fail(message string) bool {
	if t.Terminal() {
		return false
	}

	now := time.Now().UTC()
	t.Status = TaskStatusFailed
	t.Progress = progressDone
	t.Error = message
	t.CompletedAt = &now
	return true
}

// Clone returns a deep copy of the record so callers can hand it out
// without exposing the registry's internal state.
func (t *TaskRecord) Clone() *TaskRecord {
	cp := *t

	cp.Images = make([]string, len(t.Images))
	copy(cp.Images, t.Images)

	cp.Parameters = make(map[string]any, len(t.Parameters))
	for k, v := range t.Parameters {
		cp.Parameters[k] = v
	}

	if t.CompletedAt != nil {
		at := *t.CompletedAt
		cp.CompletedAt = &at
	}

	return &cp
}

// isValidTaskType checks if the given type is a supported TaskType.
func isValidTaskType(taskType TaskType) bool {
	switch taskType {
	case TaskTypeTextToImage, TaskTypeImageToImage:
		return true
	default:
		return false
	}
}
