// Package store implements the task registry and the generation
// history.
//
// TaskStore is a purely in-memory, mutex-serialized map of task records
// owning the lifecycle state machine. HistoryStore is the bounded,
// file-backed collection of completed generations; the whole collection
// is rewritten to a single JSON file on every mutation. The two stores
// use independent locks: the history hand-off always runs after the
// registry's critical section has finished.
package store
