package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/palaska/tasks-api/internal/domain"
	"github.com/palaska/tasks-api/internal/platform/database"
)

// newMockDB returns a Postgres-dialect handle backed by sqlmock.
func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return database.New(sqlDB, database.DialectPostgres), mock
}

func mustUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser("Test User", email, "$2a$10$abcdefghijklmnopqrstuv")
	require.NoError(t, err)
	return user
}

func createUser(t *testing.T, db *database.DB, email string) *domain.User {
	t.Helper()
	user := mustUser(t, email)
	require.NoError(t, NewUserStore(db, nil).Create(context.Background(), user))
	return user
}

func mustSession(t *testing.T, userID uuid.UUID) *domain.Session {
	t.Helper()
	session, err := domain.NewSession(userID, uuid.NewString(), time.Now(), time.Hour)
	require.NoError(t, err)
	return session
}
