// Package service contains the orchestration layer bridging request
// handling and background generation work.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pixelforge/imagegen-api/internal/domain"
	"github.com/pixelforge/imagegen-api/internal/generation"
	"github.com/pixelforge/imagegen-api/internal/store"
	"github.com/pixelforge/imagegen-api/internal/task"
)

// Common errors
var (
	ErrNilTaskStore = errors.New("task store cannot be nil")
	ErrNilGenerator = errors.New("generator cannot be nil")
	ErrNilExtractor = errors.New("extractor cannot be nil")
	ErrNilSubmitter = errors.New("task submitter cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
)

// GenerationService creates generation tasks and schedules their
// background execution. The request path only ever touches the task
// registry; the slow provider call runs on the runner's workers and is
// never awaited here.
type GenerationService struct {
	tasks     *store.TaskStore
	generator generation.Generator
	extractor task.RefExtractor
	submitter task.Submitter
	logger    *slog.Logger
}

// NewGenerationService creates a GenerationService with its
// collaborators injected.
func NewGenerationService(
	tasks *store.TaskStore,
	generator generation.Generator,
	extractor task.RefExtractor,
	submitter task.Submitter,
	logger *slog.Logger,
) (*GenerationService, error) {
	if tasks == nil {
		return nil, ErrNilTaskStore
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if extractor == nil {
		return nil, ErrNilExtractor
	}
	if submitter == nil {
		return nil, ErrNilSubmitter
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &GenerationService{
		tasks:     tasks,
		generator: generator,
		extractor: extractor,
		submitter: submitter,
		logger:    logger.With("component", "generation_service"),
	}, nil
}

// CreateTextToImageTask registers a pending text-to-image task and
// schedules it. The returned record reflects the task at creation time;
// callers poll the registry for progress.
func (s *GenerationService) CreateTextToImageTask(
	ctx context.Context,
	req generation.TextToImageRequest,
) (*domain.TaskRecord, error) {
	record, err := s.tasks.CreateTask(
		domain.TaskTypeTextToImage,
		req.Prompt,
		req.NegativePrompt,
		textToImageParameters(req),
	)
	if err != nil {
		return nil, err
	}

	t, err := task.NewTextToImageTask(record.ID, req, s.tasks, s.generator, s.extractor, s.logger)
	if err != nil {
		return nil, err
	}

	return s.schedule(ctx, record, t)
}

// CreateImageToImageTask registers a pending image-to-image task and
// schedules it. The input image is not echoed into the audit
// parameters.
func (s *GenerationService) CreateImageToImageTask(
	ctx context.Context,
	req generation.ImageToImageRequest,
) (*domain.TaskRecord, error) {
	record, err := s.tasks.CreateTask(
		domain.TaskTypeImageToImage,
		req.Prompt,
		req.NegativePrompt,
		imageToImageParameters(req),
	)
	if err != nil {
		return nil, err
	}

	t, err := task.NewImageToImageTask(record.ID, req, s.tasks, s.generator, s.extractor, s.logger)
	if err != nil {
		return nil, err
	}

	return s.schedule(ctx, record, t)
}

// schedule submits the built task for background execution. A
// submission failure (queue full or closed) fails the already-created
// task record instead of leaving it pending forever.
func (s *GenerationService) schedule(
	ctx context.Context,
	record *domain.TaskRecord,
	t *task.GenerationTask,
) (*domain.TaskRecord, error) {
	if err := s.submitter.Submit(ctx, t); err != nil {
		s.logger.Warn("failed to schedule generation task", "task_id", record.ID, "error", err)
		return s.tasks.FailTask(record.ID, "failed to schedule generation task")
	}

	return record, nil
}

// textToImageParameters echoes the request into the audit parameter map
// stored on the task record.
func textToImageParameters(req generation.TextToImageRequest) map[string]any {
	return map[string]any{
		"width":        req.Width,
		"height":       req.Height,
		"steps":        req.Steps,
		"scale":        req.Scale,
		"seed":         req.Seed,
		"style_preset": req.StylePreset,
		"num_images":   req.NumImages,
	}
}

// imageToImageParameters echoes the request into the audit parameter
// map, excluding the image payload itself.
func imageToImageParameters(req generation.ImageToImageRequest) map[string]any {
	return map[string]any{
		"strength":     req.Strength,
		"steps":        req.Steps,
		"scale":        req.Scale,
		"seed":         req.Seed,
		"style_preset": req.StylePreset,
	}
}
