package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palaska/tasks-api/internal/domain"
	"github.com/palaska/tasks-api/internal/service/auth"
	"github.com/palaska/tasks-api/internal/testdb"
)

func TestResolveSession(t *testing.T) {
	ctx := context.Background()
	identity := testIdentity(t, domain.RoleUser)

	t.Run("anonymous", func(t *testing.T) {
		got, err := ResolveSession(ctx, &stubProvider{}, http.Header{})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("authenticated", func(t *testing.T) {
		got, err := ResolveSession(ctx, &stubProvider{identity: identity}, http.Header{})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Same(t, identity.User, got.User)
		assert.Same(t, identity.Session, got.Session)
	})

	t.Run("no provider", func(t *testing.T) {
		_, err := ResolveSession(ctx, nil, http.Header{})
		assert.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("provider error", func(t *testing.T) {
		errBoom := errors.New("boom")
		_, err := ResolveSession(ctx, &stubProvider{err: errBoom}, http.Header{})
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("half identity", func(t *testing.T) {
		broken := &domain.Identity{User: identity.User}
		_, err := ResolveSession(ctx, &stubProvider{identity: broken}, http.Header{})
		assert.ErrorIs(t, err, domain.ErrIdentityMismatch)
	})

	t.Run("mismatched identity", func(t *testing.T) {
		other := *identity.Session
		other.UserID = uuid.New()
		broken := &domain.Identity{User: identity.User, Session: &other}
		_, err := ResolveSession(ctx, &stubProvider{identity: broken}, http.Header{})
		assert.ErrorIs(t, err, domain.ErrIdentityMismatch)
	})
}

func TestResolveSession_Idempotent(t *testing.T) {
	cfg := newTestConfig()
	db := testdb.Open(t)
	provider, err := auth.NewFactory(newAuthDeps(t, cfg)).New(db)
	require.NoError(t, err)

	token := signUp(t, provider, "Grace", "grace@example.com")
	h := http.Header{"Authorization": []string{"Bearer " + token}}

	first, err := ResolveSession(context.Background(), provider, h)
	require.NoError(t, err)
	second, err := ResolveSession(context.Background(), provider, h)
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, first.Session.ID, second.Session.ID)
	assert.Equal(t, first.Session.ExpiresAt, second.Session.ExpiresAt)
}
