package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pixelforge/imagegen-api/internal/api"
	apiMiddleware "github.com/pixelforge/imagegen-api/internal/api/middleware"
	"github.com/pixelforge/imagegen-api/internal/api/shared"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	generationHandler := api.NewGenerationHandler(app.generationService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskStore, app.logger)
	historyHandler := api.NewHistoryHandler(app.historyStore, app.logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/generate/text2image", generationHandler.TextToImage)
		r.Post("/generate/image2image", generationHandler.ImageToImage)

		r.Get("/tasks", taskHandler.ListTasks)
		r.Get("/tasks/{taskID}", taskHandler.GetTask)

		r.Get("/history", historyHandler.ListHistory)
		r.Put("/history/{taskID}/favorite", historyHandler.ToggleFavorite)
	})

	// Decoded inline images are served straight from the output dir.
	fileServer := http.FileServer(http.Dir(app.config.Storage.OutputDir))
	r.Handle("/images/*", http.StripPrefix("/images/", fileServer))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, api.HealthResponse{
			Status:             "healthy",
			Version:            appVersion,
			ProviderConfigured: app.config.Provider.Configured(),
		})
	})

	return r
}
