package api

import (
	"log/slog"
	"net/http"

	"github.com/palaska/tasks-api/internal/api/shared"
	"github.com/palaska/tasks-api/internal/domain"
	"github.com/palaska/tasks-api/internal/platform/logger"
	"github.com/palaska/tasks-api/internal/platform/sqlstore"
	"github.com/palaska/tasks-api/internal/store"
)

// TaskHandler serves the task routes. The task store is bound per request to
// the database handle the pipeline published.
type TaskHandler struct {
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}
	return &TaskHandler{logger: logger.With(slog.String("component", "task_handler"))}
}

func (h *TaskHandler) tasks(rc *shared.RequestContext) store.TaskStore {
	return sqlstore.NewTaskStore(rc.DB(), rc.Logger())
}

// ListTasks handles GET /api/tasks: the caller's tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	rc, user, ok := requestScope(w, r)
	if !ok {
		return
	}

	tasks, err := h.tasks(rc).ListByUser(r.Context(), user.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// ListAllTasks handles GET /api/admin/tasks: every user's tasks.
func (h *TaskHandler) ListAllTasks(w http.ResponseWriter, r *http.Request) {
	rc, _, ok := requestScope(w, r)
	if !ok {
		return
	}

	tasks, err := h.tasks(rc).ListAll(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	rc, user, ok := requestScope(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, shared.ValidationMessage(err), err)
		return
	}

	task, err := domain.NewTask(user.ID, req.Name, req.Done)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := h.tasks(rc).Create(r.Context(), task); err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", user.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	rc, user, ok := requestScope(w, r)
	if !ok {
		return
	}

	task, ok := h.ownedTask(w, r, rc, user)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PATCH /api/tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	rc, user, ok := requestScope(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if req.Name == nil && req.Done == nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation failed: name or done is required")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, shared.ValidationMessage(err), err)
		return
	}

	task, ok := h.ownedTask(w, r, rc, user)
	if !ok {
		return
	}
	if err := task.Apply(req.Name, req.Done); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := h.tasks(rc).Update(r.Context(), task); err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	rc, user, ok := requestScope(w, r)
	if !ok {
		return
	}

	task, ok := h.ownedTask(w, r, rc, user)
	if !ok {
		return
	}
	if err := h.tasks(rc).Delete(r.Context(), task.ID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedTask loads the task named by the path. Tasks of other users are
// reported as missing so their existence does not leak.
func (h *TaskHandler) ownedTask(
	w http.ResponseWriter,
	r *http.Request,
	rc *shared.RequestContext,
	user *domain.User,
) (*domain.Task, bool) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return nil, false
	}

	task, err := h.tasks(rc).GetByID(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return nil, false
	}
	if task.UserID != user.ID {
		HandleAPIError(w, r, store.ErrTaskNotFound, "")
		return nil, false
	}
	return task, true
}
