package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palaska/tasks-api/internal/api/shared"
	"github.com/palaska/tasks-api/internal/domain"
)

// echoProvider answers every delegated request with a fixed raw response.
type echoProvider struct {
	seenPath string
	seenBody string
}

func (p *echoProvider) GetSession(context.Context, http.Header) (*domain.Identity, error) {
	return nil, nil
}

func (p *echoProvider) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		p.seenPath = r.URL.Path
		p.seenBody = string(body)
		w.Header().Set("X-Provider", "yes")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("raw provider body"))
	})
}

func TestDelegateAuth_PassesThrough(t *testing.T) {
	provider := &echoProvider{}
	rc := shared.NewRequestContext(nil)
	require.NoError(t, rc.SetAuth(provider))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in/email", strings.NewReader(`{"email":"a"}`))
	req = req.WithContext(shared.WithRequestContext(req.Context(), rc))
	rec := httptest.NewRecorder()

	DelegateAuth(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "raw provider body", rec.Body.String())
	assert.Equal(t, "yes", rec.Header().Get("X-Provider"))
	assert.Equal(t, "/api/auth/sign-in/email", provider.seenPath)
	assert.Equal(t, `{"email":"a"}`, provider.seenBody)
}

func TestDelegateAuth_NoProvider(t *testing.T) {
	rec := httptest.NewRecorder()
	DelegateAuth(rec, httptest.NewRequest(http.MethodGet, "/api/auth/get-session", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Server misconfigured")
}
