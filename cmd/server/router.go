package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/palaska/tasks-api/internal/api"
	"github.com/palaska/tasks-api/internal/api/shared"
	apiMiddleware "github.com/palaska/tasks-api/internal/api/middleware"
	"github.com/palaska/tasks-api/internal/platform/metrics"
)

// setupRouter builds the HTTP surface. Health, metrics and the API
// documentation sit outside the context composition pipeline; the auth and
// task routes run through it.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.RequestLogger(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// Cross-origin policies reject before any database work.
	r.Use(apiMiddleware.CORS(app.config.CORS))
	r.Use(app.sameOrigin)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get(api.DocPath, app.docHandler)
	r.Get(api.ReferencePath, api.ReferenceHandler(api.DocPath))

	pipeline := apiMiddleware.NewPipeline(app.config, app.binder, app.factory)
	r.Group(func(r chi.Router) {
		r.Use(pipeline.Handler)

		authBase := strings.TrimRight(app.config.Auth.BasePath, "/")
		r.Handle(authBase+"/*", http.HandlerFunc(api.DelegateAuth))

		r.Route("/api/tasks", func(r chi.Router) {
			r.Use(apiMiddleware.Authenticated)
			r.Get("/", app.taskHandler.ListTasks)
			r.Post("/", app.taskHandler.CreateTask)
			r.Get("/{id}", app.taskHandler.GetTask)
			r.Patch("/{id}", app.taskHandler.UpdateTask)
			r.Delete("/{id}", app.taskHandler.DeleteTask)
		})

		r.With(apiMiddleware.Administrator).Get("/api/admin/tasks", app.taskHandler.ListAllTasks)
	})

	return r
}
