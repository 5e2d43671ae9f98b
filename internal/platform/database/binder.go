package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/palaska/tasks-api/internal/config"
)

// ErrUnavailable is returned when no database handle can be obtained for a
// request. It is a configuration fault, never an authorization one.
var ErrUnavailable = errors.New("database unavailable")

// Binder produces the database handle for one request.
type Binder interface {
	Bind(ctx context.Context, cfg *config.Config) (*DB, error)
}

// OpenFunc opens a handle from database configuration. Open satisfies it.
type OpenFunc func(ctx context.Context, cfg config.DatabaseConfig) (*DB, error)

// PoolBinder hands every request the same pooled handle. The pool is opened on
// the first successful Bind; failed opens are not remembered, so a later
// request retries.
type PoolBinder struct {
	open OpenFunc

	mu sync.Mutex
	db *DB
}

// NewPoolBinder returns a binder that opens its pool with open, or with Open
// when open is nil.
func NewPoolBinder(open OpenFunc) *PoolBinder {
	if open == nil {
		open = Open
	}
	return &PoolBinder{open: open}
}

// Bind returns the pooled handle, opening it if needed.
func (b *PoolBinder) Bind(ctx context.Context, cfg *config.Config) (*DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: no configuration bound", ErrUnavailable)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db != nil {
		return b.db, nil
	}

	db, err := b.open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if db == nil {
		return nil, fmt.Errorf("%w: opener returned no handle", ErrUnavailable)
	}
	b.db = db
	return db, nil
}

// Close closes the pool if it was opened.
func (b *PoolBinder) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// BinderFunc adapts a function to the Binder interface.
type BinderFunc func(ctx context.Context, cfg *config.Config) (*DB, error)

// Bind calls f.
func (f BinderFunc) Bind(ctx context.Context, cfg *config.Config) (*DB, error) {
	return f(ctx, cfg)
}
