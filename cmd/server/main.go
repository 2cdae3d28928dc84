// Command server runs the asynchronous image-generation API.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pixelforge/imagegen-api/internal/config"
	"github.com/pixelforge/imagegen-api/internal/extraction"
	"github.com/pixelforge/imagegen-api/internal/generation"
	"github.com/pixelforge/imagegen-api/internal/platform/logger"
	"github.com/pixelforge/imagegen-api/internal/platform/volcengine"
	"github.com/pixelforge/imagegen-api/internal/service"
	"github.com/pixelforge/imagegen-api/internal/store"
	"github.com/pixelforge/imagegen-api/internal/task"
)

// appVersion is reported by the health endpoint.
const appVersion = "1.0.0"

// application bundles the process-lifetime dependencies, constructed
// once at startup and passed explicitly into handlers and the
// orchestrator.
type application struct {
	config            *config.Config
	logger            *slog.Logger
	taskStore         *store.TaskStore
	historyStore      *store.HistoryStore
	generationService *service.GenerationService
	runner            *task.Runner
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server)

	app, err := buildApplication(cfg, log)
	if err != nil {
		return err
	}

	app.runner.Start()
	defer app.runner.Stop()

	return app.startHTTPServer(app.setupRouter())
}

// buildApplication wires the dependency graph: storage, provider,
// extraction, runner and the orchestrating service.
func buildApplication(cfg *config.Config, log *slog.Logger) (*application, error) {
	if err := os.MkdirAll(cfg.Storage.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	historyStore := store.NewHistoryStore(cfg.Storage.HistoryFile, cfg.Storage.MaxHistorySize, log)
	taskStore := store.NewTaskStore(historyStore, log)
	extractor := extraction.NewExtractor(cfg.Storage.OutputDir, log)

	generator, err := selectGenerator(cfg.Provider, log)
	if err != nil {
		return nil, err
	}

	runner := task.NewRunner(task.RunnerConfig{
		WorkerCount: cfg.Runner.WorkerCount,
		QueueSize:   cfg.Runner.QueueSize,
	}, log)

	generationService, err := service.NewGenerationService(taskStore, generator, extractor, runner, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build generation service: %w", err)
	}

	return &application{
		config:            cfg,
		logger:            log,
		taskStore:         taskStore,
		historyStore:      historyStore,
		generationService: generationService,
		runner:            runner,
	}, nil
}

// selectGenerator picks the real provider client when credentials are
// configured and the mock otherwise, so the service runs out of the box
// in demo setups.
func selectGenerator(cfg config.ProviderConfig, log *slog.Logger) (generation.Generator, error) {
	if !cfg.Configured() {
		log.Info("provider credentials not configured, using mock generator")
		return volcengine.NewMockGenerator(log), nil
	}

	client, err := volcengine.New(volcengine.Config{
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Region:    cfg.Region,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider client: %w", err)
	}

	return client, nil
}
