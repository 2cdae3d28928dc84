package api

import (
	"log/slog"
	"net/http"

	"github.com/pixelforge/imagegen-api/internal/api/shared"
	"github.com/pixelforge/imagegen-api/internal/domain"
	"github.com/pixelforge/imagegen-api/internal/service"
)

// GenerationHandler handles generation submission requests
type GenerationHandler struct {
	generationService *service.GenerationService
	logger            *slog.Logger
}

// NewGenerationHandler creates a new GenerationHandler
func NewGenerationHandler(generationService *service.GenerationService, logger *slog.Logger) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		logger:            logger,
	}
}

// TextToImage handles POST /api/v1/generate/text2image requests. The
// generation runs in the background; the response carries the task ID
// to poll.
func (h *GenerationHandler) TextToImage(w http.ResponseWriter, r *http.Request) {
	var req TextToImageRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	req.applyDefaults()
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	record, err := h.generationService.CreateTextToImageTask(r.Context(), req.toGenerationRequest())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to create generation task", err)
		return
	}

	h.respondAccepted(w, r, record, "Image generation task created")
}

// ImageToImage handles POST /api/v1/generate/image2image requests.
func (h *GenerationHandler) ImageToImage(w http.ResponseWriter, r *http.Request) {
	var req ImageToImageRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	req.applyDefaults()
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	record, err := h.generationService.CreateImageToImageTask(r.Context(), req.toGenerationRequest())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to create generation task", err)
		return
	}

	h.respondAccepted(w, r, record, "Image transformation task created")
}

// respondAccepted returns 202 with the freshly created task's identity;
// the handler never waits for the generation itself.
func (h *GenerationHandler) respondAccepted(
	w http.ResponseWriter,
	r *http.Request,
	record *domain.TaskRecord,
	message string,
) {
	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskResponse{
		TaskID:    record.ID.String(),
		Status:    string(record.Status),
		Message:   message,
		CreatedAt: record.CreatedAt,
	})
}
