package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskRecord(t *testing.T) {
	params := map[string]any{"width": 512}
	task, err := NewTaskRecord(TaskTypeTextToImage, "a red fox", "blurry", params)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, TaskTypeTextToImage, task.Type)
	assert.Equal(t, TaskStatusPending, task.Status)
	assert.Equal(t, "a red fox", task.Prompt)
	assert.Equal(t, "blurry", task.NegativePrompt)
	assert.Equal(t, params, task.Parameters)
	assert.Empty(t, task.Images)
	assert.Equal(t, 0, task.Progress)
	assert.Empty(t, task.Error)
	assert.False(t, task.CreatedAt.IsZero())
	assert.Nil(t, task.CompletedAt)
}

func TestNewTaskRecordNilParameters(t *testing.T) {
	task, err := NewTaskRecord(TaskTypeTextToImage, "a red fox", "", nil)
	require.NoError(t, err)
	assert.NotNil(t, task.Parameters)
}

func TestNewTaskRecordValidation(t *testing.T) {
	_, err := NewTaskRecord(TaskTypeTextToImage, "", "", nil)
	assert.ErrorIs(t, err, ErrEmptyTaskPrompt)

	_, err = NewTaskRecord(TaskType("sculpture"), "a red fox", "", nil)
	assert.ErrorIs(t, err, ErrInvalidTaskType)
}

func TestMarkProcessing(t *testing.T) {
	task, err := NewTaskRecord(TaskTypeTextToImage, "a red fox", "", nil)
	require.NoError(t, err)

	assert.True(t, task.MarkProcessing())
	assert.Equal(t, TaskStatusProcessing, task.Status)
	assert.Equal(t, 10, task.Progress)

	// Not a legal transition from processing.
	assert.False(t, task.MarkProcessing())
	assert.Equal(t, TaskStatusProcessing, task.Status)
}

func TestComplete(t *testing.T) {
	task, err := NewTaskRecord(TaskTypeTextToImage, "a red fox", "", nil)
	require.NoError(t, err)
	task.MarkProcessing()

	assert.True(t, task.Complete([]string{"http://x/a.png"}))
	assert.Equal(t, TaskStatusCompleted, task.Status)
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, []string{"http://x/a.png"}, task.Images)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.Terminal())
}

func TestCompleteFromPending(t *testing.T) {
	task, err := NewTaskRecord(TaskTypeTextToImage, "a red fox", "", nil)
	require.NoError(t, err)

	assert.True(t, task.Complete(nil))
	assert.Equal(t, TaskStatusCompleted, task.Status)
	assert.NotNil(t, task.Images)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	task, err := NewTaskRecord(TaskTypeTextToImage, "a red fox", "", nil)
	require.NoError(t, err)

	require.True(t, task.Complete([]string{"http://x/a.png"}))
	completedAt := *task.CompletedAt

	assert.False(t, task.Complete([]string{"http://x/other.png"}))
	assert.False(t, task.Fail("boom"))
	assert.False(t, task.MarkProcessing())

	assert.Equal(t, []string{"http://x/a.png"}, task.Images)
	assert.Empty(t, task.Error)
	assert.Equal(t, completedAt, *task.CompletedAt)
}

func TestFail(t *testing.T) {
	task, err := NewTaskRecord(TaskTypeImageToImage, "a red fox", "", nil)
	require.NoError(t, err)

	assert.True(t, task.Fail("provider exploded"))
	assert.Equal(t, TaskStatusFailed, task.Status)
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, "provider exploded", task.Error)
	require.NotNil(t, task.CompletedAt)

	assert.False(t, task.Complete([]string{"http://x/a.png"}))
	assert.Empty(t, task.Images)
}

func TestClone(t *testing.T) {
	task, err := NewTaskRecord(TaskTypeTextToImage, "a red fox", "", map[string]any{"steps": 20})
	require.NoError(t, err)
	require.True(t, task.Complete([]string{"http://x/a.png"}))

	cp := task.Clone()
	require.Equal(t, task, cp)

	cp.Images[0] = "http://x/mutated.png"
	cp.Parameters["steps"] = 99
	*cp.CompletedAt = time.Time{}

	assert.Equal(t, []string{"http://x/a.png"}, task.Images)
	assert.Equal(t, 20, task.Parameters["steps"])
	assert.False(t, task.CompletedAt.IsZero())
}
