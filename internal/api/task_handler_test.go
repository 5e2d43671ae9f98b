package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palaska/tasks-api/internal/domain"
	"github.com/palaska/tasks-api/internal/testdb"
)

func TestTaskHandler_CreateAndList(t *testing.T) {
	db := testdb.Open(t)
	user := createUser(t, db, "ada@example.com", domain.RoleUser)
	other := createUser(t, db, "bob@example.com", domain.RoleUser)
	createTask(t, db, other, "not mine")
	h := newTaskRouter(t, db, user)

	rec := do(t, h, http.MethodPost, "/api/tasks", map[string]any{"name": "  write tests  ", "done": false})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[TaskResponse](t, rec)
	assert.Equal(t, "write tests", created.Name)
	assert.Equal(t, user.ID.String(), created.UserID)
	assert.False(t, created.Done)

	rec = do(t, h, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[TaskListResponse](t, rec)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, created.ID, list.Tasks[0].ID)
}

func TestTaskHandler_CreateValidation(t *testing.T) {
	db := testdb.Open(t)
	h := newTaskRouter(t, db, createUser(t, db, "ada@example.com", domain.RoleUser))

	tests := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{"missing name", map[string]any{"done": true}, "Validation failed: name is required"},
		{"name too long", map[string]any{"name": strings.Repeat("x", 501)}, "Validation failed: name must be at most 500 characters"},
		{"blank name", map[string]any{"name": "   "}, "Task name cannot be empty"},
		{"unknown field", map[string]any{"name": "ok", "priority": 1}, "Invalid request format"},
		{"malformed json", `{"name":`, "Invalid request format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/tasks", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantMsg)
		})
	}
}

func TestTaskHandler_GetUpdateDelete(t *testing.T) {
	db := testdb.Open(t)
	user := createUser(t, db, "ada@example.com", domain.RoleUser)
	task := createTask(t, db, user, "ship it")
	h := newTaskRouter(t, db, user)
	path := "/api/tasks/" + task.ID.String()

	rec := do(t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ship it", decode[TaskResponse](t, rec).Name)

	rec = do(t, h, http.MethodPatch, path, map[string]any{"done": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[TaskResponse](t, rec)
	assert.True(t, updated.Done)
	assert.Equal(t, "ship it", updated.Name)

	rec = do(t, h, http.MethodPatch, path, map[string]any{"name": "renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "renamed", decode[TaskResponse](t, rec).Name)

	rec = do(t, h, http.MethodGet, path, nil)
	got := decode[TaskResponse](t, rec)
	assert.Equal(t, "renamed", got.Name)
	assert.True(t, got.Done)

	rec = do(t, h, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Task not found")
}

func TestTaskHandler_UpdateRequiresAField(t *testing.T) {
	db := testdb.Open(t)
	user := createUser(t, db, "ada@example.com", domain.RoleUser)
	task := createTask(t, db, user, "ship it")
	h := newTaskRouter(t, db, user)

	rec := do(t, h, http.MethodPatch, "/api/tasks/"+task.ID.String(), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name or done is required")

	rec = do(t, h, http.MethodPatch, "/api/tasks/"+task.ID.String(), map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandler_OtherUsersTasksAreHidden(t *testing.T) {
	db := testdb.Open(t)
	owner := createUser(t, db, "ada@example.com", domain.RoleUser)
	intruder := createUser(t, db, "eve@example.com", domain.RoleUser)
	task := createTask(t, db, owner, "private")
	h := newTaskRouter(t, db, intruder)
	path := "/api/tasks/" + task.ID.String()

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := do(t, h, method, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
	}
	rec := do(t, h, http.MethodPatch, path, map[string]any{"done": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ownerView := do(t, newTaskRouter(t, db, owner), http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, ownerView.Code)
	assert.False(t, decode[TaskResponse](t, ownerView).Done)
}

func TestTaskHandler_InvalidID(t *testing.T) {
	db := testdb.Open(t)
	h := newTaskRouter(t, db, createUser(t, db, "ada@example.com", domain.RoleUser))

	rec := do(t, h, http.MethodGet, "/api/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid id: has invalid format")

	rec = do(t, h, http.MethodGet, "/api/tasks/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskHandler_ListAll(t *testing.T) {
	db := testdb.Open(t)
	admin := createUser(t, db, "root@example.com", domain.RoleAdmin)
	member := createUser(t, db, "ada@example.com", domain.RoleUser)
	createTask(t, db, admin, "a")
	createTask(t, db, member, "b")

	rec := do(t, newTaskRouter(t, db, admin), http.MethodGet, "/api/admin/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[TaskListResponse](t, rec).Total)
}

func TestTaskHandler_RequiresContext(t *testing.T) {
	db := testdb.Open(t)

	rec := do(t, newTaskRouter(t, db, nil), http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, newTaskRouter(t, nil, nil), http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Server misconfigured")
}

func TestNewTaskHandler_NilLogger(t *testing.T) {
	assert.Panics(t, func() { NewTaskHandler(nil) })
}
