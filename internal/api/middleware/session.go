package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/palaska/tasks-api/internal/domain"
	"github.com/palaska/tasks-api/internal/service/auth"
)

// ErrNoProvider is returned when session resolution runs without a provider.
var ErrNoProvider = errors.New("no authentication provider bound")

// ResolveSession asks provider who is calling. A nil identity with a nil error
// is an anonymous caller. Trust decisions (signature, expiry, revocation) are
// left entirely to the provider; the only local check is that an identity is
// a complete, consistent user/session pair.
func ResolveSession(ctx context.Context, provider auth.Provider, h http.Header) (*domain.Identity, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}

	identity, err := provider.GetSession(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	if identity == nil {
		return nil, nil
	}

	// Re-pair through the constructor so a half-filled identity never escapes.
	checked, err := domain.NewIdentity(identity.User, identity.Session)
	if err != nil {
		return nil, fmt.Errorf("provider returned an inconsistent identity: %w", err)
	}
	return checked, nil
}
