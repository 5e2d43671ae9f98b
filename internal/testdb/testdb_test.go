package testdb

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palaska/tasks-api/internal/platform/database"
)

func countUsers(t *testing.T, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}) int {
	t.Helper()
	var n int
	require.NoError(t, q.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM users").Scan(&n))
	return n
}

func TestOpen(t *testing.T) {
	db := Open(t)
	assert.Equal(t, database.DialectSQLite, db.Dialect)
	assert.Zero(t, countUsers(t, db))
	assert.NotEqual(t, MemoryURL(), MemoryURL())
}

func TestWithTx_RollsBack(t *testing.T) {
	db := Open(t)

	WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		_, err := tx.ExecContext(context.Background(),
			`INSERT INTO users (id, name, email, email_verified, role, hashed_password, created_at, updated_at)
			 VALUES ('u1', 'Ada', 'ada@example.com', 0, 'user', 'hash', 1, 1)`)
		require.NoError(t, err)
		assert.Equal(t, 1, countUsers(t, tx))
	})

	assert.Zero(t, countUsers(t, db))
}

func TestOpenPostgres(t *testing.T) {
	db := OpenPostgres(t)
	assert.Equal(t, database.DialectPostgres, db.Dialect)
	assert.NoError(t, db.PingContext(context.Background()))
}
