package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pixelforge/imagegen-api/internal/domain"
	"github.com/pixelforge/imagegen-api/internal/generation"
)

// genericFailureMessage is used when the provider reports a failure
// without a usable error message.
const genericFailureMessage = "failed to generate image"

// Common errors
var (
	ErrNilRecorder  = errors.New("task recorder cannot be nil")
	ErrNilGenerator = errors.New("generator cannot be nil")
	ErrNilExtractor = errors.New("extractor cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
	ErrEmptyTaskID  = errors.New("task ID cannot be empty")
)

// TaskRecorder is the slice of the task registry a generation task
// needs to report its lifecycle.
type TaskRecorder interface {
	// SetProcessing transitions a pending task into the processing state
	SetProcessing(id uuid.UUID) (*domain.TaskRecord, error)

	// CompleteTask transitions a task into the completed state with its images
	CompleteTask(id uuid.UUID, images []string) (*domain.TaskRecord, error)

	// FailTask transitions a task into the failed state with an error message
	FailTask(id uuid.UUID, message string) (*domain.TaskRecord, error)
}

// RefExtractor normalizes a provider payload into image references.
type RefExtractor interface {
	ImageRefs(payload any) []string
}

// GenerationTask drives one task record from pending to a terminal
// state: it marks the record processing, invokes the generation
// provider, normalizes the response into image references and records
// the outcome. Every fault along the way, including panics, is
// converted into a failed-task transition; a task never ends up stuck
// in a non-terminal state because of an execution error.
type GenerationTask struct {
	taskID    uuid.UUID
	taskType  domain.TaskType
	recorder  TaskRecorder
	generator generation.Generator
	extractor RefExtractor
	logger    *slog.Logger
	t2i       *generation.TextToImageRequest
	i2i       *generation.ImageToImageRequest
	done      chan struct{}
}

// NewTextToImageTask creates a GenerationTask for a text-to-image
// request against an already-created task record.
func NewTextToImageTask(
	taskID uuid.UUID,
	req generation.TextToImageRequest,
	recorder TaskRecorder,
	generator generation.Generator,
	extractor RefExtractor,
	logger *slog.Logger,
) (*GenerationTask, error) {
	t, err := newGenerationTask(taskID, domain.TaskTypeTextToImage, recorder, generator, extractor, logger)
	if err != nil {
		return nil, err
	}
	t.t2i = &req
	return t, nil
}

// NewImageToImageTask creates a GenerationTask for an image-to-image
// request against an already-created task record.
func NewImageToImageTask(
	taskID uuid.UUID,
	req generation.ImageToImageRequest,
	recorder TaskRecorder,
	generator generation.Generator,
	extractor RefExtractor,
	logger *slog.Logger,
) (*GenerationTask, error) {
	t, err := newGenerationTask(taskID, domain.TaskTypeImageToImage, recorder, generator, extractor, logger)
	if err != nil {
		return nil, err
	}
	t.i2i = &req
	return t, nil
}

func newGenerationTask(
	taskID uuid.UUID,
	taskType domain.TaskType,
	recorder TaskRecorder,
	generator generation.Generator,
	extractor RefExtractor,
	logger *slog.Logger,
) (*GenerationTask, error) {
	if recorder == nil {
		return nil, ErrNilRecorder
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if extractor == nil {
		return nil, ErrNilExtractor
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if taskID == uuid.Nil {
		return nil, ErrEmptyTaskID
	}

	return &GenerationTask{
		taskID:    taskID,
		taskType:  taskType,
		recorder:  recorder,
		generator: generator,
		extractor: extractor,
		logger:    logger.With("task_type", taskType, "task_id", taskID),
		done:      make(chan struct{}),
	}, nil
}

// ID returns the task's unique identifier
func (t *GenerationTask) ID() uuid.UUID {
	return t.taskID
}

// Type returns the task type identifier
func (t *GenerationTask) Type() string {
	return string(t.taskType)
}

// Done returns a channel that is closed when the task has finished
// executing, successfully or not. Production callers never wait on it;
// it exists so tests can observe completion deterministically.
func (t *GenerationTask) Done() <-chan struct{} {
	return t.done
}

// Execute runs the generation to a terminal task state.
func (t *GenerationTask) Execute(ctx context.Context) (err error) {
	defer close(t.done)
	defer func() {
		if p := recover(); p != nil {
			t.logger.Error("panic during generation", "panic", p)
			t.fail(fmt.Sprintf("internal error: %v", p))
			err = fmt.Errorf("panic during generation: %v", p)
		}
	}()

	if _, err := t.recorder.SetProcessing(t.taskID); err != nil {
		return fmt.Errorf("failed to mark task processing: %w", err)
	}

	switch t.taskType {
	case domain.TaskTypeImageToImage:
		return t.runImageToImage(ctx)
	default:
		return t.runTextToImage(ctx)
	}
}

// runTextToImage interprets the batched provider result: success
// requires every sub-result to be error-free, image references are
// concatenated in sub-result order, and on failure the first sub-result
// carrying an error supplies the message.
func (t *GenerationTask) runTextToImage(ctx context.Context) error {
	result, err := t.generator.TextToImage(ctx, *t.t2i)
	if err != nil {
		t.fail(fmt.Sprintf("internal error: %v", err))
		return fmt.Errorf("text2image call failed: %w", err)
	}

	if !result.Success {
		t.fail(firstResultError(result.Results))
		return nil
	}

	images := make([]string, 0, len(result.Results))
	for _, sub := range result.Results {
		data, ok := sub["data"]
		if !ok {
			continue
		}
		images = append(images, t.extractor.ImageRefs(data)...)
	}

	t.complete(images)
	return nil
}

// runImageToImage interprets the single provider result: success is the
// presence of the nested data location.
func (t *GenerationTask) runImageToImage(ctx context.Context) error {
	result, err := t.generator.ImageToImage(ctx, *t.i2i)
	if err != nil {
		t.fail(fmt.Sprintf("internal error: %v", err))
		return fmt.Errorf("image2image call failed: %w", err)
	}

	if !result.Success {
		t.fail(resultError(result.Result))
		return nil
	}

	data, ok := result.Result["data"]
	if !ok {
		t.fail("invalid response format")
		return nil
	}

	t.complete(t.extractor.ImageRefs(data))
	return nil
}

func (t *GenerationTask) complete(images []string) {
	if _, err := t.recorder.CompleteTask(t.taskID, images); err != nil {
		t.logger.Error("failed to record task completion", "error", err)
		return
	}
	t.logger.Info("generation completed", "image_count", len(images))
}

func (t *GenerationTask) fail(message string) {
	if _, err := t.recorder.FailTask(t.taskID, message); err != nil {
		t.logger.Error("failed to record task failure", "error", err)
		return
	}
	t.logger.Warn("generation failed", "reason", message)
}

// firstResultError returns the error message of the first sub-result
// carrying one, or the generic fallback.
func firstResultError(results []map[string]any) string {
	for _, sub := range results {
		value, ok := sub["error"]
		if !ok {
			continue
		}
		if message, ok := value.(string); ok && message != "" {
			return message
		}
		return genericFailureMessage
	}
	return genericFailureMessage
}

// resultError returns the error message embedded in a single provider
// result, or the generic fallback.
func resultError(result map[string]any) string {
	if message, ok := result["error"].(string); ok && message != "" {
		return message
	}
	return genericFailureMessage
}
