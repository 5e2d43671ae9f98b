package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/palaska/tasks-api/internal/domain"
	"github.com/palaska/tasks-api/internal/platform/database"
	"github.com/palaska/tasks-api/internal/platform/logger"
	"github.com/palaska/tasks-api/internal/store"
)

const sessionColumns = `id, user_id, token, expires_at, ip_address, user_agent, created_at, updated_at`

// SessionStore implements store.SessionStore.
type SessionStore struct {
	db      store.DBTX
	dialect database.Dialect
	logger  *slog.Logger
}

var _ store.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore bound to db.
func NewSessionStore(db *database.DB, logger *slog.Logger) *SessionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		db:      db.DB,
		dialect: db.Dialect,
		logger:  logger.With(slog.String("component", "session_store")),
	}
}

// WithTx returns a copy of the store that runs its queries inside tx.
func (s *SessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &SessionStore{db: tx, dialect: s.dialect, logger: s.logger}
}

// Create implements store.SessionStore.Create.
func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := database.Rebind(s.dialect, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		toMillis(session.ExpiresAt),
		session.IPAddress,
		session.UserAgent,
		toMillis(session.CreatedAt),
		toMillis(session.UpdatedAt),
	)
	if err != nil {
		log.Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("user_id", session.UserID.String()))
		return storeError("session", "create", err)
	}

	log.Debug("session created",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", session.UserID.String()))
	return nil
}

// GetByID implements store.SessionStore.GetByID.
func (s *SessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	query := database.Rebind(s.dialect, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`)
	return s.getOne(ctx, query, id)
}

// GetByToken implements store.SessionStore.GetByToken.
func (s *SessionStore) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, store.ErrSessionNotFound
	}
	query := database.Rebind(s.dialect, `SELECT `+sessionColumns+` FROM sessions WHERE token = ?`)
	return s.getOne(ctx, query, token)
}

func (s *SessionStore) getOne(ctx context.Context, query string, arg any) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		session                         domain.Session
		expiresAt, createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&expiresAt,
		&session.IPAddress,
		&session.UserAgent,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get session", slog.String("error", err.Error()))
		return nil, storeError("session", "get", err)
	}

	session.ExpiresAt = fromMillis(expiresAt)
	session.CreatedAt = fromMillis(createdAt)
	session.UpdatedAt = fromMillis(updatedAt)
	return &session, nil
}

// Delete implements store.SessionStore.Delete.
func (s *SessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		database.Rebind(s.dialect, `DELETE FROM sessions WHERE id = ?`), id)
	if err != nil {
		log.Error("failed to delete session",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return storeError("session", "delete", err)
	}
	return CheckRowsAffected(result, store.ErrSessionNotFound)
}
