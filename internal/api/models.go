package api

import (
	"time"

	"github.com/palaska/tasks-api/internal/domain"
)

// CreateTaskRequest is the payload of POST /api/tasks.
type CreateTaskRequest struct {
	Name string `json:"name" validate:"required,max=500"`
	Done bool   `json:"done"`
}

// UpdateTaskRequest is the payload of PATCH /api/tasks/{id}. Absent fields
// are left unchanged; at least one must be present.
type UpdateTaskRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=500"`
	Done *bool   `json:"done"`
}

// TaskResponse is the wire form of a task.
type TaskResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskListResponse wraps a list of tasks.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID.String(),
		UserID:    t.UserID.String(),
		Name:      t.Name,
		Done:      t.Done,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func tasksToResponse(tasks []*domain.Task) TaskListResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToResponse(t))
	}
	return TaskListResponse{Tasks: out, Total: len(out)}
}
