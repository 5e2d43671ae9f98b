// Package main is the entry point of the tasks API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/palaska/tasks-api/internal/config"
	"github.com/palaska/tasks-api/internal/platform/database"
	"github.com/palaska/tasks-api/internal/platform/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	autoMigrate := flag.Bool("auto-migrate", false, "apply database migrations before serving")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrateOnly, *autoMigrate); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, wires the application and serves until ctx is
// cancelled. With migrateOnly it applies migrations and returns.
func run(ctx context.Context, migrateOnly, autoMigrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"email_enabled", cfg.Email.Enabled,
		"cache_providers", cfg.Auth.CacheProviders)

	app, err := newApplication(ctx, cfg, log, database.NewPoolBinder(nil))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if migrateOnly || autoMigrate {
		if err := app.migrate(ctx); err != nil {
			app.cleanup()
			return err
		}
		if migrateOnly {
			app.cleanup()
			return nil
		}
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
