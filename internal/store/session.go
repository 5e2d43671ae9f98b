package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/palaska/tasks-api/internal/domain"
)

// SessionStore persists login sessions.
type SessionStore interface {
	// Create saves a new session.
	Create(ctx context.Context, session *domain.Session) error

	// GetByID returns ErrSessionNotFound when no session has the given ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// GetByToken returns ErrSessionNotFound when no session carries token.
	GetByToken(ctx context.Context, token string) (*domain.Session, error)

	// Delete removes a session. Deleting a missing session returns ErrSessionNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	WithTx(tx *sql.Tx) SessionStore
}
