package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pixelforge/imagegen-api/internal/api/shared"
	"github.com/pixelforge/imagegen-api/internal/store"
)

// Pagination bounds for history queries
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// HistoryHandler serves the persisted generation history
type HistoryHandler struct {
	history *store.HistoryStore
	logger  *slog.Logger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(history *store.HistoryStore, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger,
	}
}

// ListHistory handles GET /api/v1/history requests. Pages are
// 1-indexed; page_size is capped at 100. An out-of-range page returns
// an empty item list with the correct total.
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(r, "page", 1)
	if !ok || page < 1 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid page parameter")
		return
	}

	pageSize, ok := queryInt(r, "page_size", defaultPageSize)
	if !ok || pageSize < 1 || pageSize > maxPageSize {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid page_size parameter")
		return
	}

	total, entries := h.history.List(page, pageSize)

	items := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, entryToResponse(entry))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HistoryListResponse{
		Total:    total,
		Items:    items,
		Page:     page,
		PageSize: pageSize,
	})
}

// ToggleFavorite handles PUT /api/v1/history/{taskID}/favorite requests
func (h *HistoryHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req FavoriteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	entry, err := h.history.ToggleFavorite(taskID, *req.Favorite)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entryToResponse(entry))
}

// queryInt parses an integer query parameter, returning fallback when
// the parameter is absent.
func queryInt(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
