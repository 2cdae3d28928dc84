package volcengine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pixelforge/imagegen-api/internal/generation"
)

// MockGenerator implements generation.Generator without calling any
// external service. It answers with placeholder image URLs after a
// randomized artificial delay, mimicking the shape of real CVProcess
// responses so the rest of the pipeline exercises the same code paths.
// It is selected automatically when no provider credentials are
// configured.
type MockGenerator struct {
	minDelay time.Duration
	maxDelay time.Duration
	logger   *slog.Logger
}

// NewMockGenerator creates a MockGenerator with the default simulated
// delay of 0.5–2 seconds.
func NewMockGenerator(logger *slog.Logger) *MockGenerator {
	return &MockGenerator{
		minDelay: 500 * time.Millisecond,
		maxDelay: 2 * time.Second,
		logger:   logger.With("component", "mock_generator"),
	}
}

// NewMockGeneratorWithDelay creates a MockGenerator with an explicit
// delay range. Tests use a zero range to stay fast.
func NewMockGeneratorWithDelay(minDelay, maxDelay time.Duration, logger *slog.Logger) *MockGenerator {
	return &MockGenerator{
		minDelay: minDelay,
		maxDelay: maxDelay,
		logger:   logger.With("component", "mock_generator"),
	}
}

// TextToImage returns one placeholder sub-result per requested image.
func (m *MockGenerator) TextToImage(
	ctx context.Context,
	req generation.TextToImageRequest,
) (*generation.TextToImageResult, error) {
	if err := m.simulateDelay(ctx); err != nil {
		return nil, err
	}

	numImages := req.NumImages
	if numImages < 1 {
		numImages = 1
	}

	seed := req.Seed
	if seed < 0 {
		seed = rand.Int63n(1000000)
	}

	results := make([]map[string]any, 0, numImages)
	for i := 0; i < numImages; i++ {
		results = append(results, map[string]any{
			"data": map[string]any{
				"image_urls": []any{placeholderURL(seed+int64(i), req.Width, req.Height)},
			},
			"code":    10000,
			"message": "Success",
		})
	}

	m.logger.Debug("mock text2image generation", "num_images", numImages, "seed", seed)

	return &generation.TextToImageResult{
		Success: true,
		Results: results,
		Count:   len(results),
	}, nil
}

// ImageToImage returns a single placeholder result.
func (m *MockGenerator) ImageToImage(
	ctx context.Context,
	req generation.ImageToImageRequest,
) (*generation.ImageToImageResult, error) {
	if err := m.simulateDelay(ctx); err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed < 0 {
		seed = rand.Int63n(1000000)
	}

	m.logger.Debug("mock image2image generation", "seed", seed)

	return &generation.ImageToImageResult{
		Success: true,
		Result: map[string]any{
			"data": map[string]any{
				"image_urls": []any{placeholderURL(seed, 512, 512)},
			},
			"code":    10000,
			"message": "Success",
		},
	}, nil
}

// simulateDelay sleeps for a random duration within the configured
// range, honoring context cancellation.
func (m *MockGenerator) simulateDelay(ctx context.Context) error {
	delay := m.minDelay
	if span := m.maxDelay - m.minDelay; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func placeholderURL(seed int64, width, height int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%d/%d/%d", seed, width, height)
}
