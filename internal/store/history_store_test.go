package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelforge/imagegen-api/internal/domain"
)

func completedTask(t *testing.T, prompt string, images []string) *domain.TaskRecord {
	t.Helper()
	task, err := domain.NewTaskRecord(domain.TaskTypeTextToImage, prompt, "", nil)
	require.NoError(t, err)
	require.True(t, task.Complete(images))
	return task
}

func TestNewHistoryStoreCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	NewHistoryStore(path, 10, setupTestLogger())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var file historyFile
	require.NoError(t, json.Unmarshal(raw, &file))
	assert.Empty(t, file.Items)
}

func TestNewHistoryStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewHistoryStore(path, 10, setupTestLogger())

	total, items := s.List(1, 10)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)
}

func TestAppendAndReloadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := NewHistoryStore(path, 10, setupTestLogger())

	first := s.AppendCompleted(completedTask(t, "a red fox", []string{"http://x/a.png"}))
	second := s.AppendCompleted(completedTask(t, "a blue whale", []string{"http://x/b.png"}))
	_, err := s.ToggleFavorite(second.TaskID, true)
	require.NoError(t, err)

	reloaded := NewHistoryStore(path, 10, setupTestLogger())

	total, items := reloaded.List(1, 10)
	require.Equal(t, 2, total)

	byTask := make(map[uuid.UUID]*domain.HistoryEntry, len(items))
	for _, entry := range items {
		byTask[entry.TaskID] = entry
	}

	require.Contains(t, byTask, first.TaskID)
	assert.Equal(t, first.ID, byTask[first.TaskID].ID)
	assert.Equal(t, []string{"http://x/a.png"}, byTask[first.TaskID].Images)
	assert.False(t, byTask[first.TaskID].Favorite)

	require.Contains(t, byTask, second.TaskID)
	assert.Equal(t, "a blue whale", byTask[second.TaskID].Prompt)
	assert.True(t, byTask[second.TaskID].Favorite)
}

func TestEvictionKeepsNewest(t *testing.T) {
	s := newTestHistoryStore(t, 3)

	base := time.Now().UTC()
	var taskIDs []uuid.UUID
	for i := 0; i < 5; i++ {
		task := completedTask(t, fmt.Sprintf("prompt %d", i), []string{"http://x/a.png"})
		at := base.Add(time.Duration(i) * time.Minute)
		task.CompletedAt = &at
		taskIDs = append(taskIDs, task.ID)
		s.AppendCompleted(task)
	}

	total, items := s.List(1, 10)
	require.Equal(t, 3, total)

	kept := make(map[uuid.UUID]bool, len(items))
	for _, entry := range items {
		kept[entry.TaskID] = true
	}
	assert.False(t, kept[taskIDs[0]])
	assert.False(t, kept[taskIDs[1]])
	assert.True(t, kept[taskIDs[2]])
	assert.True(t, kept[taskIDs[3]])
	assert.True(t, kept[taskIDs[4]])

	// Newest first within the page.
	assert.Equal(t, taskIDs[4], items[0].TaskID)
	assert.Equal(t, taskIDs[2], items[2].TaskID)
}

func TestListPagination(t *testing.T) {
	s := newTestHistoryStore(t, 100)

	total, items := s.List(1, 20)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)

	base := time.Now().UTC()
	for i := 0; i < 45; i++ {
		task := completedTask(t, fmt.Sprintf("prompt %d", i), nil)
		at := base.Add(time.Duration(i) * time.Second)
		task.CompletedAt = &at
		s.AppendCompleted(task)
	}

	total, items = s.List(1, 20)
	assert.Equal(t, 45, total)
	assert.Len(t, items, 20)
	assert.Equal(t, "prompt 44", items[0].Prompt)

	total, items = s.List(2, 20)
	assert.Equal(t, 45, total)
	assert.Len(t, items, 20)

	total, items = s.List(3, 20)
	assert.Equal(t, 45, total)
	assert.Len(t, items, 5)
	assert.Equal(t, "prompt 0", items[4].Prompt)

	total, items = s.List(4, 20)
	assert.Equal(t, 45, total)
	assert.Empty(t, items)
}

func TestToggleFavorite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := NewHistoryStore(path, 10, setupTestLogger())

	entry := s.AppendCompleted(completedTask(t, "a red fox", nil))

	updated, err := s.ToggleFavorite(entry.TaskID, true)
	require.NoError(t, err)
	assert.True(t, updated.Favorite)

	reloaded := NewHistoryStore(path, 10, setupTestLogger())
	_, items := reloaded.List(1, 10)
	require.Len(t, items, 1)
	assert.True(t, items[0].Favorite)

	updated, err = s.ToggleFavorite(entry.TaskID, false)
	require.NoError(t, err)
	assert.False(t, updated.Favorite)
}

func TestToggleFavoriteUnknownTask(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := NewHistoryStore(path, 10, setupTestLogger())
	s.AppendCompleted(completedTask(t, "a red fox", nil))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = s.ToggleFavorite(uuid.New(), true)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAppendSurvivesPersistFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	s := NewHistoryStore(path, 10, setupTestLogger())

	// Make the rewrite fail by putting a directory where the file was.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	entry := s.AppendCompleted(completedTask(t, "a red fox", []string{"http://x/a.png"}))
	require.NotNil(t, entry)

	total, items := s.List(1, 10)
	assert.Equal(t, 1, total)
	assert.Equal(t, entry.TaskID, items[0].TaskID)
}
