package testdb

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/palaska/tasks-api/internal/config"
	"github.com/palaska/tasks-api/internal/platform/database"
)

// PostgresURLEnv names the variable holding the Postgres test database URL.
const PostgresURLEnv = "TASKS_TEST_DATABASE_URL"

// MemoryURL returns a fresh shared-cache in-memory SQLite URL. Each call names
// a distinct database.
func MemoryURL() string {
	return "file:" + uuid.NewString() + "?mode=memory&cache=shared"
}

// Open returns a migrated in-memory SQLite handle closed when t ends.
func Open(t *testing.T) *database.DB {
	t.Helper()
	return open(t, MemoryURL())
}

// ShouldSkipPostgres reports whether no Postgres test database is configured.
func ShouldSkipPostgres() bool {
	return os.Getenv(PostgresURLEnv) == ""
}

// OpenPostgres returns a migrated Postgres handle, skipping t when
// TASKS_TEST_DATABASE_URL is unset.
func OpenPostgres(t *testing.T) *database.DB {
	t.Helper()
	if ShouldSkipPostgres() {
		t.Skip(PostgresURLEnv + " not set - skipping Postgres test")
	}
	return open(t, os.Getenv(PostgresURLEnv))
}

func open(t *testing.T, url string) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{URL: url})
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(ctx, db), "failed to migrate test database")
	return db
}

// WithTx runs fn inside a transaction that is rolled back afterwards.
func WithTx(t *testing.T, db *database.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Errorf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
