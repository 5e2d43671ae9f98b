package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/palaska/tasks-api/internal/api"
	apiMiddleware "github.com/palaska/tasks-api/internal/api/middleware"
	"github.com/palaska/tasks-api/internal/config"
	"github.com/palaska/tasks-api/internal/platform/database"
	"github.com/palaska/tasks-api/internal/platform/email"
	"github.com/palaska/tasks-api/internal/redact"
	"github.com/palaska/tasks-api/internal/service/auth"
)

// application holds the process-wide dependencies. Everything request scoped
// is built by the pipeline from these.
type application struct {
	config *config.Config
	logger *slog.Logger

	binder  database.Binder
	db      *database.DB
	mailer  *email.Mailer
	factory auth.Factory

	sameOrigin  func(http.Handler) http.Handler
	docHandler  http.HandlerFunc
	taskHandler *api.TaskHandler
}

// newApplication wires the application. The database is bound once up front
// so a misconfigured connection fails startup rather than the first request.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	binder database.Binder,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		binder: binder,
	}

	db, err := binder.Bind(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to bind database: %w", err)
	}
	app.db = db
	logger.Info("database connection established",
		"dialect", string(db.Dialect),
		"url", redact.URL(cfg.Database.URL))

	app.mailer, err = email.New(cfg.Email, logger.With("component", "mailer"))
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	deps, err := auth.NewDependencies(cfg, app.mailer, logger.With("component", "auth"))
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize authentication: %w", err)
	}
	app.factory = auth.NewFactory(deps)
	if cfg.Auth.CacheProviders {
		app.factory = auth.NewCachingFactory(app.factory)
	}

	app.sameOrigin, err = apiMiddleware.SameOrigin(cfg.CORS.AllowedOrigins)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to configure origin checks: %w", err)
	}

	doc, err := api.NewOpenAPIDocument(ctx, cfg.Auth)
	if err != nil {
		app.cleanup()
		return nil, err
	}
	app.docHandler, err = api.OpenAPIHandler(doc)
	if err != nil {
		app.cleanup()
		return nil, err
	}

	app.taskHandler = api.NewTaskHandler(logger)
	return app, nil
}

// migrate applies the embedded migrations to the bound database.
func (app *application) migrate(ctx context.Context) error {
	db, err := app.binder.Bind(ctx, app.config)
	if err != nil {
		return fmt.Errorf("failed to bind database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// cleanup releases resources held by the application. Providers cached for
// the bound handle are dropped before the handle is closed.
func (app *application) cleanup() {
	if cache, ok := app.factory.(*auth.CachingFactory); ok && app.db != nil {
		cache.Forget(app.db)
	}

	closer, ok := app.binder.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		app.logger.Error("failed to close database", "error", redact.Error(err))
		return
	}
	app.logger.Info("database connection closed")
}
