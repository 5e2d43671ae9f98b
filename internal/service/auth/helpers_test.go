package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/palaska/tasks-api/internal/config"
	"github.com/palaska/tasks-api/internal/platform/email"
	"github.com/palaska/tasks-api/internal/testdb"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *recordingMailer) SendWelcome(_ context.Context, to []string, _ string, _ email.WelcomeData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to...)
	return m.err
}

func newTestDeps(t *testing.T, mailer WelcomeMailer) Dependencies {
	t.Helper()
	tokens, err := NewJWTService(testSecret)
	require.NoError(t, err)
	passwords := &BcryptVerifier{cost: bcrypt.MinCost}
	return Dependencies{
		Config: config.AuthConfig{
			Secret:     testSecret,
			BasePath:   "/api/auth",
			SessionTTL: time.Hour,
			CookieName: "tasks_session",
		},
		Tokens:   tokens,
		Hasher:   passwords,
		Verifier: passwords,
		Mailer:   mailer,
		Now:      time.Now,
	}
}

func newTestProvider(t *testing.T) (*SessionProvider, *recordingMailer) {
	t.Helper()
	mailer := &recordingMailer{}
	p, err := NewSessionProvider(testdb.Open(t), newTestDeps(t, mailer))
	require.NoError(t, err)
	return p, mailer
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// signUp registers a user and returns the bearer token and session cookie.
func signUp(t *testing.T, p *SessionProvider, name, emailAddr string) (string, *http.Cookie) {
	t.Helper()
	rec := doJSON(t, p.Handler(), http.MethodPost, "/api/auth/sign-up/email",
		map[string]string{"name": name, "email": emailAddr, "password": "password123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return resp.Token, cookies[0]
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func withCookie(c *http.Cookie) http.Header {
	return http.Header{"Cookie": []string{c.Name + "=" + c.Value}}
}
