package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/palaska/tasks-api/internal/api/shared"
	"github.com/palaska/tasks-api/internal/config"
	"github.com/palaska/tasks-api/internal/domain"
	"github.com/palaska/tasks-api/internal/platform/database"
	"github.com/palaska/tasks-api/internal/platform/sqlstore"
)

func createUser(t *testing.T, db *database.DB, email, role string) *domain.User {
	t.Helper()
	user, err := domain.NewUser("Test User", email, "$2a$10$hash")
	require.NoError(t, err)
	user.Role = role
	require.NoError(t, sqlstore.NewUserStore(db, slog.Default()).Create(context.Background(), user))
	return user
}

func createTask(t *testing.T, db *database.DB, user *domain.User, name string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(user.ID, name, false)
	require.NoError(t, err)
	require.NoError(t, sqlstore.NewTaskStore(db, slog.Default()).Create(context.Background(), task))
	return task
}

// withCaller stands in for the pipeline: it publishes db and user (nil for
// an anonymous caller) into a fresh request context.
func withCaller(t *testing.T, db *database.DB, user *domain.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := shared.NewRequestContext(&config.Config{})
			if db != nil {
				require.NoError(t, rc.SetDB(db))
			}
			var identity *domain.Identity
			if user != nil {
				session := &domain.Session{
					ID:        uuid.New(),
					UserID:    user.ID,
					Token:     "tok",
					ExpiresAt: time.Now().Add(time.Hour),
				}
				var err error
				identity, err = domain.NewIdentity(user, session)
				require.NoError(t, err)
			}
			require.NoError(t, rc.SetIdentity(identity))
			next.ServeHTTP(w, r.WithContext(shared.WithRequestContext(r.Context(), rc)))
		})
	}
}

func newTaskRouter(t *testing.T, db *database.DB, user *domain.User) http.Handler {
	h := NewTaskHandler(slog.Default())
	r := chi.NewRouter()
	r.Use(withCaller(t, db, user))
	r.Get("/api/tasks", h.ListTasks)
	r.Post("/api/tasks", h.CreateTask)
	r.Get("/api/tasks/{id}", h.GetTask)
	r.Patch("/api/tasks/{id}", h.UpdateTask)
	r.Delete("/api/tasks/{id}", h.DeleteTask)
	r.Get("/api/admin/tasks", h.ListAllTasks)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}
