package api

import (
	"time"

	"github.com/pixelforge/imagegen-api/internal/domain"
	"github.com/pixelforge/imagegen-api/internal/generation"
)

// Default generation parameters, applied before validation when the
// client omits a field.
const (
	defaultDimension = 512
	defaultSteps     = 20
	defaultScale     = 7.5
	defaultStrength  = 0.75
	defaultNumImages = 1
)

// TextToImageRequest is the request body for text-to-image generation
type TextToImageRequest struct {
	Prompt         string  `json:"prompt"                    validate:"required,min=1,max=1000"`
	NegativePrompt string  `json:"negative_prompt,omitempty" validate:"omitempty,max=1000"`
	Width          int     `json:"width"                     validate:"gte=64,lte=2048"`
	Height         int     `json:"height"                    validate:"gte=64,lte=2048"`
	Steps          int     `json:"steps"                     validate:"gte=1,lte=100"`
	Scale          float64 `json:"scale"                     validate:"gte=1,lte=20"`
	Seed           *int64  `json:"seed,omitempty"            validate:"omitempty,gte=-1"`
	StylePreset    string  `json:"style_preset"              validate:"oneof=none anime photographic digital_art comic_book fantasy_art line_art analog_film neon_punk isometric low_poly origami modeling_compound cinematic 3d_model"`
	NumImages      int     `json:"num_images"                validate:"gte=1,lte=4"`
}

// applyDefaults fills omitted fields with the documented defaults.
func (r *TextToImageRequest) applyDefaults() {
	if r.Width == 0 {
		r.Width = defaultDimension
	}
	if r.Height == 0 {
		r.Height = defaultDimension
	}
	if r.Steps == 0 {
		r.Steps = defaultSteps
	}
	if r.Scale == 0 {
		r.Scale = defaultScale
	}
	if r.NumImages == 0 {
		r.NumImages = defaultNumImages
	}
	if r.StylePreset == "" {
		r.StylePreset = "none"
	}
}

// toGenerationRequest converts the DTO into the provider-facing request.
func (r *TextToImageRequest) toGenerationRequest() generation.TextToImageRequest {
	seed := int64(-1)
	if r.Seed != nil {
		seed = *r.Seed
	}

	return generation.TextToImageRequest{
		Prompt:         r.Prompt,
		NegativePrompt: r.NegativePrompt,
		Width:          r.Width,
		Height:         r.Height,
		Steps:          r.Steps,
		Scale:          r.Scale,
		Seed:           seed,
		StylePreset:    r.StylePreset,
		NumImages:      r.NumImages,
	}
}

// ImageToImageRequest is the request body for image-to-image generation.
// Image carries the base64-encoded input, with or without a data-URI
// prefix; anything shorter than 100 characters is rejected as not a
// plausible image.
type ImageToImageRequest struct {
	Image          string   `json:"image"                     validate:"required,min=100"`
	Prompt         string   `json:"prompt"                    validate:"required,min=1,max=1000"`
	NegativePrompt string   `json:"negative_prompt,omitempty" validate:"omitempty,max=1000"`
	Strength       *float64 `json:"strength,omitempty"        validate:"omitempty,gte=0,lte=1"`
	Steps          int      `json:"steps"                     validate:"gte=1,lte=100"`
	Scale          float64  `json:"scale"                     validate:"gte=1,lte=20"`
	Seed           *int64   `json:"seed,omitempty"            validate:"omitempty,gte=-1"`
	StylePreset    string   `json:"style_preset"              validate:"oneof=none anime photographic digital_art comic_book fantasy_art line_art analog_film neon_punk isometric low_poly origami modeling_compound cinematic 3d_model"`
}

// applyDefaults fills omitted fields with the documented defaults.
func (r *ImageToImageRequest) applyDefaults() {
	if r.Steps == 0 {
		r.Steps = defaultSteps
	}
	if r.Scale == 0 {
		r.Scale = defaultScale
	}
	if r.StylePreset == "" {
		r.StylePreset = "none"
	}
}

// toGenerationRequest converts the DTO into the provider-facing request.
func (r *ImageToImageRequest) toGenerationRequest() generation.ImageToImageRequest {
	seed := int64(-1)
	if r.Seed != nil {
		seed = *r.Seed
	}

	strength := defaultStrength
	if r.Strength != nil {
		strength = *r.Strength
	}

	return generation.ImageToImageRequest{
		Image:          r.Image,
		Prompt:         r.Prompt,
		NegativePrompt: r.NegativePrompt,
		Strength:       strength,
		Steps:          r.Steps,
		Scale:          r.Scale,
		Seed:           seed,
		StylePreset:    r.StylePreset,
	}
}

// FavoriteRequest is the request body for toggling a history entry's
// favorite flag
type FavoriteRequest struct {
	Favorite *bool `json:"favorite" validate:"required"`
}

// TaskResponse is returned when a generation task has been accepted
type TaskResponse struct {
	TaskID    string    `json:"task_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskStatusResponse describes a task's current lifecycle state
type TaskStatusResponse struct {
	TaskID      string     `json:"task_id"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Images      []string   `json:"images"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// HistoryEntryResponse is the wire form of one history entry
type HistoryEntryResponse struct {
	ID             string         `json:"id"`
	TaskID         string         `json:"task_id"`
	Type           string         `json:"type"`
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negative_prompt,omitempty"`
	Parameters     map[string]any `json:"parameters"`
	Images         []string       `json:"images"`
	CreatedAt      time.Time      `json:"created_at"`
	Favorite       bool           `json:"favorite"`
}

// HistoryListResponse is one page of generation history
type HistoryListResponse struct {
	Total    int                    `json:"total"`
	Items    []HistoryEntryResponse `json:"items"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status             string `json:"status"`
	Version            string `json:"version"`
	ProviderConfigured bool   `json:"provider_configured"`
}

// taskToStatusResponse converts a domain.TaskRecord to a TaskStatusResponse
func taskToStatusResponse(task *domain.TaskRecord) TaskStatusResponse {
	return TaskStatusResponse{
		TaskID:      task.ID.String(),
		Status:      string(task.Status),
		Progress:    task.Progress,
		Images:      task.Images,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
	}
}

// entryToResponse converts a domain.HistoryEntry to its wire form
func entryToResponse(entry *domain.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:             entry.ID.String(),
		TaskID:         entry.TaskID.String(),
		Type:           string(entry.Type),
		Prompt:         entry.Prompt,
		NegativePrompt: entry.NegativePrompt,
		Parameters:     entry.Parameters,
		Images:         entry.Images,
		CreatedAt:      entry.CreatedAt,
		Favorite:       entry.Favorite,
	}
}
