package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/palaska/tasks-api/internal/api/shared"
	"github.com/palaska/tasks-api/internal/config"
	"github.com/palaska/tasks-api/internal/domain"
	"github.com/palaska/tasks-api/internal/platform/database"
	"github.com/palaska/tasks-api/internal/platform/logger"
	"github.com/palaska/tasks-api/internal/service/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// stubProvider returns a fixed identity and counts lookups.
type stubProvider struct {
	mu       sync.Mutex
	identity *domain.Identity
	err      error
	calls    int
}

func (p *stubProvider) GetSession(context.Context, http.Header) (*domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.identity, p.err
}

func (p *stubProvider) Handler() http.Handler {
	return http.NotFoundHandler()
}

// countingFactory records every handle it is asked to build for.
type countingFactory struct {
	provider auth.Provider
	err      error
	handles  []*database.DB
}

func (f *countingFactory) New(db *database.DB) (auth.Provider, error) {
	f.handles = append(f.handles, db)
	if f.err != nil {
		return nil, f.err
	}
	return f.provider, nil
}

func staticBinder(db *database.DB, err error) database.Binder {
	return database.BinderFunc(func(context.Context, *config.Config) (*database.DB, error) {
		return db, err
	})
}

func fakeDB() *database.DB {
	return database.New(nil, database.DialectSQLite)
}

func testIdentity(t *testing.T, role string) *domain.Identity {
	t.Helper()
	user := &domain.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", Role: role}
	session := &domain.Session{ID: uuid.New(), UserID: user.ID, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	identity, err := domain.NewIdentity(user, session)
	require.NoError(t, err)
	return identity
}

// captureHandler stores the request context seen by the final handler.
type captureHandler struct {
	calls int
	rc    *shared.RequestContext
	log   *slog.Logger
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	h.rc = shared.FromContext(r.Context())
	h.log = logger.FromContext(r.Context())
	w.WriteHeader(http.StatusTeapot)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

// withRequestContext returns a request carrying a resolved context for identity.
func withRequestContext(t *testing.T, r *http.Request, identity *domain.Identity) *http.Request {
	t.Helper()
	rc := shared.NewRequestContext(&config.Config{})
	require.NoError(t, rc.SetIdentity(identity))
	return r.WithContext(shared.WithRequestContext(r.Context(), rc))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: config.EnvTest},
		Auth: config.AuthConfig{
			Secret:     testSecret,
			BasePath:   "/api/auth",
			SessionTTL: time.Hour,
			CookieName: "tasks_session",
		},
	}
}

func newAuthDeps(t *testing.T, cfg *config.Config) auth.Dependencies {
	t.Helper()
	deps, err := auth.NewDependencies(cfg, nil, nil)
	require.NoError(t, err)
	return deps
}

// signUp registers a user through the provider's own endpoint and returns
// the bearer token.
func signUp(t *testing.T, p auth.Provider, name, email string) string {
	t.Helper()
	body, err := json.Marshal(map[string]string{"name": name, "email": email, "password": "password123"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-up/email", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp auth.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Token
}
