package shared

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/palaska/tasks-api/internal/config"
	"github.com/palaska/tasks-api/internal/domain"
	"github.com/palaska/tasks-api/internal/platform/database"
	"github.com/palaska/tasks-api/internal/service/auth"
)

// ErrSlotAlreadySet is returned when a request context slot is written twice.
var ErrSlotAlreadySet = errors.New("request context slot already set")

type requestContextKey struct{}

// RequestContext is the per-request state shared between the pipeline and
// the handlers behind it. Bindings is the process configuration; every
// variable slot is written once by the pipeline step that owns it and only
// read afterwards. A RequestContext never outlives its request.
type RequestContext struct {
	bindings *config.Config

	logger *slog.Logger
	db     *database.DB
	auth   auth.Provider

	identity         *domain.Identity
	identityResolved bool
}

// NewRequestContext starts a request context over bindings.
func NewRequestContext(bindings *config.Config) *RequestContext {
	return &RequestContext{bindings: bindings}
}

// WithRequestContext returns a copy of ctx carrying rc.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext returns the request context stored in ctx, or nil.
func FromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc
}

// Bindings returns the configuration bound to the request.
func (rc *RequestContext) Bindings() *config.Config {
	if rc == nil {
		return nil
	}
	return rc.bindings
}

// SetLogger fills the logger slot.
func (rc *RequestContext) SetLogger(l *slog.Logger) error {
	if rc.logger != nil {
		return fmt.Errorf("%w: logger", ErrSlotAlreadySet)
	}
	rc.logger = l
	return nil
}

// Logger returns the request logger, or the default logger if none is set.
func (rc *RequestContext) Logger() *slog.Logger {
	if rc == nil || rc.logger == nil {
		return slog.Default()
	}
	return rc.logger
}

// SetDB fills the database slot.
func (rc *RequestContext) SetDB(db *database.DB) error {
	if rc.db != nil {
		return fmt.Errorf("%w: db", ErrSlotAlreadySet)
	}
	rc.db = db
	return nil
}

// DB returns the request's database handle.
func (rc *RequestContext) DB() *database.DB {
	if rc == nil {
		return nil
	}
	return rc.db
}

// SetAuth fills the authentication provider slot.
func (rc *RequestContext) SetAuth(p auth.Provider) error {
	if rc.auth != nil {
		return fmt.Errorf("%w: auth", ErrSlotAlreadySet)
	}
	rc.auth = p
	return nil
}

// Auth returns the request's authentication provider.
func (rc *RequestContext) Auth() auth.Provider {
	if rc == nil {
		return nil
	}
	return rc.auth
}

// SetIdentity records the resolved caller. A nil identity records an
// anonymous caller; either way the slot can be written only once. For a
// signed-in caller the request logger gains a user_id attribute.
func (rc *RequestContext) SetIdentity(identity *domain.Identity) error {
	if rc.identityResolved {
		return fmt.Errorf("%w: identity", ErrSlotAlreadySet)
	}
	rc.identity = identity
	rc.identityResolved = true
	if identity != nil && identity.User != nil {
		rc.logger = rc.Logger().With(slog.String("user_id", identity.User.ID.String()))
	}
	return nil
}

// IdentityResolved reports whether session resolution has run.
func (rc *RequestContext) IdentityResolved() bool {
	return rc != nil && rc.identityResolved
}

// Identity returns the resolved caller, or nil for an anonymous one.
func (rc *RequestContext) Identity() *domain.Identity {
	if rc == nil {
		return nil
	}
	return rc.identity
}

// User returns the resolved user, or nil.
func (rc *RequestContext) User() *domain.User {
	if id := rc.Identity(); id != nil {
		return id.User
	}
	return nil
}

// Session returns the resolved session, or nil.
func (rc *RequestContext) Session() *domain.Session {
	if id := rc.Identity(); id != nil {
		return id.Session
	}
	return nil
}
