package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pixelforge/imagegen-api/internal/domain"
)

// historyFile is the on-disk representation of the history collection.
type historyFile struct {
	Items []*domain.HistoryEntry `json:"items"`
}

// HistoryStore keeps the bounded collection of completed-task records.
// The collection is held in memory, keyed by the originating task ID,
// and rewritten wholesale to a single JSON file on every mutation.
//
// Persistence is best effort: a missing file is initialized to an empty
// collection, a corrupt file degrades to an empty collection, and a
// failed rewrite never reverts an in-memory mutation.
type HistoryStore struct {
	mu      sync.Mutex
	path    string
	maxSize int
	entries map[uuid.UUID]*domain.HistoryEntry
	logger  *slog.Logger
}

// NewHistoryStore creates a HistoryStore backed by the file at path,
// holding at most maxSize entries, and loads any previously persisted
// collection. A missing file is created immediately with an empty
// collection; an unreadable or unparseable one is treated as empty.
func NewHistoryStore(path string, maxSize int, logger *slog.Logger) *HistoryStore {
	s := &HistoryStore{
		path:    path,
		maxSize: maxSize,
		entries: make(map[uuid.UUID]*domain.HistoryEntry),
		logger:  logger.With("component", "history_store"),
	}
	s.load()
	return s
}

// load reads the backing file into memory. Never fails: any problem
// with the file leaves the store empty.
func (s *HistoryStore) load() {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			s.logger.Warn("failed to create history directory", "path", s.path, "error", err)
			return
		}
		if err := s.persist(); err != nil {
			s.logger.Warn("failed to initialize history file", "path", s.path, "error", err)
		}
		return
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("failed to read history file, starting empty", "path", s.path, "error", err)
		return
	}

	var file historyFile
	if err := json.Unmarshal(raw, &file); err != nil {
		s.logger.Warn("history file is corrupt, starting empty", "path", s.path, "error", err)
		return
	}

	for _, entry := range file.Items {
		s.entries[entry.TaskID] = entry
	}

	s.logger.Info("loaded generation history", "entries", len(s.entries))
}

// AppendCompleted builds a HistoryEntry from a completed task, inserts
// it, evicts the oldest entries if the collection exceeds its capacity,
// and rewrites the backing file. The entry is returned regardless of
// whether the rewrite succeeded.
func (s *HistoryStore) AppendCompleted(task *domain.TaskRecord) *domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := domain.NewHistoryEntry(task)
	s.entries[entry.TaskID] = entry

	s.evictOldest()

	if err := s.persist(); err != nil {
		s.logger.Error("failed to persist history", "task_id", task.ID, "error", err)
	}

	return entry.Clone()
}

// evictOldest removes the oldest entries by creation time until the
// collection is within its capacity bound. Caller must hold the lock.
func (s *HistoryStore) evictOldest() {
	if len(s.entries) <= s.maxSize {
		return
	}

	sorted := s.sortedEntries()
	excess := len(sorted) - s.maxSize
	for i := 0; i < excess; i++ {
		oldest := sorted[len(sorted)-1-i]
		delete(s.entries, oldest.TaskID)
	}
}

// List returns the total number of entries and one page of them, sorted
// newest first. Pages are 1-indexed; an out-of-range page yields an
// empty slice with the correct total.
func (s *HistoryStore) List(page, pageSize int) (int, []*domain.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := s.sortedEntries()
	total := len(sorted)

	start := (page - 1) * pageSize
	if start >= total || start < 0 {
		return total, []*domain.HistoryEntry{}
	}

	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]*domain.HistoryEntry, 0, end-start)
	for _, entry := range sorted[start:end] {
		items = append(items, entry.Clone())
	}

	return total, items
}

// Entries returns a copy of every entry, sorted newest first. Used to
// reconstruct the task registry at startup.
func (s *HistoryStore) Entries() []*domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := s.sortedEntries()
	items := make([]*domain.HistoryEntry, 0, len(sorted))
	for _, entry := range sorted {
		items = append(items, entry.Clone())
	}
	return items
}

// ToggleFavorite sets the favorite flag on the entry for the given task
// and rewrites the backing file. The in-memory entry reflects the new
// flag even if the rewrite fails.
func (s *HistoryStore) ToggleFavorite(taskID uuid.UUID, favorite bool) (*domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", ErrEntryNotFound, taskID)
	}

	entry.Favorite = favorite

	if err := s.persist(); err != nil {
		s.logger.Error("failed to persist history", "task_id", taskID, "error", err)
	}

	return entry.Clone(), nil
}

// sortedEntries returns the entries newest first. Caller must hold the
// lock.
func (s *HistoryStore) sortedEntries() []*domain.HistoryEntry {
	sorted := make([]*domain.HistoryEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		sorted = append(sorted, entry)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

// persist rewrites the whole backing file from the in-memory
// collection. Caller must hold the lock.
func (s *HistoryStore) persist() error {
	data, err := json.MarshalIndent(historyFile{Items: s.sortedEntries()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}
