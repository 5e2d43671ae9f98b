package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palaska/tasks-api/internal/store"
)

func TestMapError(t *testing.T) {
	plain := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), store.ErrNotFound},
		{"pg unique", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"pg foreign key", &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "tasks_user_id_fkey"}, store.ErrInvalidEntity},
		{"pg not null", &pgconn.PgError{Code: notNullViolationCode, ColumnName: "name"}, store.ErrInvalidEntity},
		{"other", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, MapError(tt.err), tt.want)
		})
	}

	assert.NoError(t, MapError(nil))
	assert.Equal(t, plain, MapError(plain))
}

func TestCheckRowsAffected(t *testing.T) {
	assert.NoError(t, CheckRowsAffected(sqlmock.NewResult(0, 1), store.ErrTaskNotFound))
	assert.ErrorIs(t, CheckRowsAffected(sqlmock.NewResult(0, 0), store.ErrTaskNotFound), store.ErrTaskNotFound)
	assert.Error(t, CheckRowsAffected(nil, store.ErrTaskNotFound))
	assert.Error(t, CheckRowsAffected(sqlmock.NewErrorResult(errors.New("no count")), store.ErrTaskNotFound))
}

func TestStoreErrorWrapsMappedError(t *testing.T) {
	assert.NoError(t, storeError("task", "get", nil))

	err := storeError("user", "create", &pgconn.PgError{Code: uniqueViolationCode})
	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "user", storeErr.Entity)
	assert.Equal(t, "create", storeErr.Operation)
	assert.True(t, store.IsDuplicateError(err))

	err = storeError("task", "get", sql.ErrNoRows)
	assert.True(t, store.IsNotFoundError(err))
}
