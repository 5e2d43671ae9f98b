package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/palaska/tasks-api/internal/domain"
)

// TaskStore persists tasks.
type TaskStore interface {
	// Create saves a new task. The owning user must exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByUser returns the tasks owned by userID, oldest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// ListAll returns every task, oldest first.
	ListAll(ctx context.Context) ([]*domain.Task, error)

	// Update persists the name, done flag and updated_at of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task. Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	WithTx(tx *sql.Tx) TaskStore
}
