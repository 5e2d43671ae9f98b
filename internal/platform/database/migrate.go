package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/palaska/tasks-api/internal/platform/logger"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrations returns the migration files for dialect.
func Migrations(dialect Dialect) (fs.FS, error) {
	switch dialect {
	case DialectPostgres:
		return fs.Sub(migrationsFS, "migrations/postgres")
	case DialectSQLite:
		return fs.Sub(migrationsFS, "migrations/sqlite")
	default:
		return nil, fmt.Errorf("%w: no migrations for dialect %q", ErrUnsupportedURL, dialect)
	}
}

func gooseDialect(dialect Dialect) (goose.Dialect, error) {
	switch dialect {
	case DialectPostgres:
		return goose.DialectPostgres, nil
	case DialectSQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("%w: dialect %q", ErrUnsupportedURL, dialect)
	}
}

// Migrate applies all pending migrations for the handle's dialect.
func Migrate(ctx context.Context, db *DB) error {
	log := logger.FromContext(ctx)

	dialect, err := gooseDialect(db.Dialect)
	if err != nil {
		return err
	}
	fsys, err := Migrations(db.Dialect)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db.DB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, r := range results {
		log.Info("applied migration",
			slog.Int64("version", r.Source.Version),
			slog.String("file", r.Source.Path),
			slog.Duration("duration", r.Duration))
	}
	if len(results) == 0 {
		log.Info("database schema is up to date")
	}
	return nil
}
