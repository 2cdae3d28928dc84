package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelforge/imagegen-api/internal/domain"
	"github.com/pixelforge/imagegen-api/internal/extraction"
	"github.com/pixelforge/imagegen-api/internal/generation"
	"github.com/pixelforge/imagegen-api/internal/service"
	"github.com/pixelforge/imagegen-api/internal/store"
	"github.com/pixelforge/imagegen-api/internal/task"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// syncSubmitter executes tasks inline so handler tests observe terminal
// task states without a running worker pool.
type syncSubmitter struct{}

func (syncSubmitter) Submit(ctx context.Context, t task.Task) error {
	return t.Execute(ctx)
}

// urlGenerator always succeeds with a single fixed image URL.
type urlGenerator struct{}

func (urlGenerator) TextToImage(_ context.Context, req generation.TextToImageRequest) (*generation.TextToImageResult, error) {
	results := make([]map[string]any, 0, req.NumImages)
	for i := 0; i < req.NumImages; i++ {
		results = append(results, map[string]any{
			"data": map[string]any{"image_urls": []any{fmt.Sprintf("http://x/%d.png", i)}},
		})
	}
	return &generation.TextToImageResult{Success: true, Results: results, Count: len(results)}, nil
}

func (urlGenerator) ImageToImage(_ context.Context, req generation.ImageToImageRequest) (*generation.ImageToImageResult, error) {
	return &generation.ImageToImageResult{
		Success: true,
		Result:  map[string]any{"data": map[string]any{"image_urls": []any{"http://x/transformed.png"}}},
	}, nil
}

type apiFixture struct {
	router       chi.Router
	taskStore    *store.TaskStore
	historyStore *store.HistoryStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := setupTestLogger()
	dir := t.TempDir()

	historyStore := store.NewHistoryStore(filepath.Join(dir, "history.json"), 100, logger)
	taskStore := store.NewTaskStore(historyStore, logger)
	extractor := extraction.NewExtractor(filepath.Join(dir, "out"), logger)

	svc, err := service.NewGenerationService(taskStore, urlGenerator{}, extractor, syncSubmitter{}, logger)
	require.NoError(t, err)

	generationHandler := NewGenerationHandler(svc, logger)
	taskHandler := NewTaskHandler(taskStore, logger)
	historyHandler := NewHistoryHandler(historyStore, logger)

	r := chi.NewRouter()
	r.Post("/generate/text2image", generationHandler.TextToImage)
	r.Post("/generate/image2image", generationHandler.ImageToImage)
	r.Get("/tasks", taskHandler.ListTasks)
	r.Get("/tasks/{taskID}", taskHandler.GetTask)
	r.Get("/history", historyHandler.ListHistory)
	r.Put("/history/{taskID}/favorite", historyHandler.ToggleFavorite)

	return &apiFixture{router: r, taskStore: taskStore, historyStore: historyStore}
}

func (f *apiFixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestTextToImageAccepted(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/generate/text2image", map[string]any{"prompt": "a red fox"})
	require.Equal(t, http.StatusAccepted, w.Code)

	resp := decodeBody[TaskResponse](t, w)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "Image generation task created", resp.Message)
	assert.False(t, resp.CreatedAt.IsZero())

	taskID, err := uuid.Parse(resp.TaskID)
	require.NoError(t, err)

	// The sync submitter has already run the generation to completion.
	record, err := f.taskStore.GetTask(taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, record.Status)
	assert.Equal(t, []string{"http://x/0.png"}, record.Images)
}

func TestTextToImageValidation(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing prompt", map[string]any{"width": 512}},
		{"prompt too long", map[string]any{"prompt": strings.Repeat("x", 1001)}},
		{"width too small", map[string]any{"prompt": "a red fox", "width": 32}},
		{"too many images", map[string]any{"prompt": "a red fox", "num_images": 5}},
		{"unknown style preset", map[string]any{"prompt": "a red fox", "style_preset": "cubist"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/generate/text2image", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "Validation error")
		})
	}
}

func TestTextToImageMalformedJSON(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/generate/text2image", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request format")
}

func TestImageToImageAccepted(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/generate/image2image", map[string]any{
		"prompt": "a red fox",
		"image":  strings.Repeat("A", 150),
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	resp := decodeBody[TaskResponse](t, w)
	assert.Equal(t, "Image transformation task created", resp.Message)

	taskID, err := uuid.Parse(resp.TaskID)
	require.NoError(t, err)

	record, err := f.taskStore.GetTask(taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskTypeImageToImage, record.Type)
	assert.Equal(t, []string{"http://x/transformed.png"}, record.Images)
}

func TestImageToImageRejectsShortImage(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/generate/image2image", map[string]any{
		"prompt": "a red fox",
		"image":  "tooshort",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Validation error")
}

func TestGetTask(t *testing.T) {
	f := newAPIFixture(t)

	record, err := f.taskStore.CreateTask(domain.TaskTypeTextToImage, "a red fox", "", nil)
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/tasks/"+record.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[TaskStatusResponse](t, w)
	assert.Equal(t, record.ID.String(), resp.TaskID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, 0, resp.Progress)
}

func TestGetTaskInvalidID(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid task ID")
}

func TestGetTaskNotFound(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/tasks/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTasks(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[[]TaskStatusResponse](t, w))

	_, err := f.taskStore.CreateTask(domain.TaskTypeTextToImage, "a red fox", "", nil)
	require.NoError(t, err)
	_, err = f.taskStore.CreateTask(domain.TaskTypeTextToImage, "a blue whale", "", nil)
	require.NoError(t, err)

	w = f.do(t, http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]TaskStatusResponse](t, w), 2)
}

func TestListHistory(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[HistoryListResponse](t, w)
	assert.Equal(t, 0, resp.Total)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PageSize)

	record, err := f.taskStore.CreateTask(domain.TaskTypeTextToImage, "a red fox", "", nil)
	require.NoError(t, err)
	_, err = f.taskStore.CompleteTask(record.ID, []string{"http://x/a.png"})
	require.NoError(t, err)

	w = f.do(t, http.MethodGet, "/history?page=1&page_size=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp = decodeBody[HistoryListResponse](t, w)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, record.ID.String(), resp.Items[0].TaskID)
	assert.Equal(t, 5, resp.PageSize)
}

func TestListHistoryRejectsBadPagination(t *testing.T) {
	f := newAPIFixture(t)

	for _, target := range []string{
		"/history?page=0",
		"/history?page=abc",
		"/history?page_size=0",
		"/history?page_size=101",
		"/history?page_size=abc",
	} {
		w := f.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestToggleFavorite(t *testing.T) {
	f := newAPIFixture(t)

	record, err := f.taskStore.CreateTask(domain.TaskTypeTextToImage, "a red fox", "", nil)
	require.NoError(t, err)
	_, err = f.taskStore.CompleteTask(record.ID, []string{"http://x/a.png"})
	require.NoError(t, err)

	w := f.do(t, http.MethodPut, "/history/"+record.ID.String()+"/favorite", map[string]any{"favorite": true})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[HistoryEntryResponse](t, w)
	assert.Equal(t, record.ID.String(), resp.TaskID)
	assert.True(t, resp.Favorite)
}

func TestToggleFavoriteUnknownTask(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPut, "/history/"+uuid.NewString()+"/favorite", map[string]any{"favorite": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleFavoriteMissingFlag(t *testing.T) {
	f := newAPIFixture(t)

	record, err := f.taskStore.CreateTask(domain.TaskTypeTextToImage, "a red fox", "", nil)
	require.NoError(t, err)
	_, err = f.taskStore.CompleteTask(record.ID, nil)
	require.NoError(t, err)

	w := f.do(t, http.MethodPut, "/history/"+record.ID.String()+"/favorite", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Validation error")
}
