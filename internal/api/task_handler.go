package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pixelforge/imagegen-api/internal/api/shared"
	"github.com/pixelforge/imagegen-api/internal/store"
)

// TaskHandler serves task status queries out of the task registry
type TaskHandler struct {
	tasks  *store.TaskStore
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks *store.TaskStore, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:  tasks,
		logger: logger,
	}
}

// GetTask handles GET /api/v1/tasks/{taskID} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	record, err := h.tasks.GetTask(taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToStatusResponse(record))
}

// ListTasks handles GET /api/v1/tasks requests, newest first
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	records := h.tasks.ListTasks()

	response := make([]TaskStatusResponse, 0, len(records))
	for _, record := range records {
		response = append(response, taskToStatusResponse(record))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}
