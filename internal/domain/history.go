package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is the durable projection of a successfully completed
// task. It carries its own ID, distinct from the originating task's,
// plus a back-reference to it. Exactly one entry is created per task
// that reaches the completed state; failed tasks leave no entry.
type HistoryEntry struct {
	ID             uuid.UUID      `json:"id"`
	TaskID         uuid.UUID      `json:"task_id"`
	Type           TaskType       `json:"type"`
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negative_prompt,omitempty"`
	Parameters     map[string]any `json:"parameters"`
	Images         []string       `json:"images"`
	CreatedAt      time.Time      `json:"created_at"`
	Favorite       bool           `json:"favorite"`
}

// NewHistoryEntry builds a HistoryEntry from a completed task. The
// entry's timestamp is the task's completion time, falling back to the
// current time if it was never set.
func NewHistoryEntry(task *TaskRecord) *HistoryEntry {
	createdAt := time.Now().UTC()
	if task.CompletedAt != nil {
		createdAt = *task.CompletedAt
	}

	images := make([]string, len(task.Images))
	copy(images, task.Images)

	parameters := make(map[string]any, len(task.Parameters))
	for k, v := range task.Parameters {
		parameters[k] = v
	}

	return &HistoryEntry{
		ID:             uuid.New(),
		TaskID:         task.ID,
		Type:           task.Type,
		Prompt:         task.Prompt,
		NegativePrompt: task.NegativePrompt,
		Parameters:     parameters,
		Images:         images,
		CreatedAt:      createdAt,
		Favorite:       false,
	}
}

// Clone returns a deep copy of the entry.
func (h *HistoryEntry) Clone() *HistoryEntry {
	cp := *h

	cp.Images = make([]string, len(h.Images))
	copy(cp.Images, h.Images)

	cp.Parameters = make(map[string]any, len(h.Parameters))
	for k, v := range h.Parameters {
		cp.Parameters[k] = v
	}

	return &cp
}
