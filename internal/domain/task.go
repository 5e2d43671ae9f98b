package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTaskNameLength bounds the task name in characters.
const MaxTaskNameLength = 500

// Task-specific validation errors
var (
	ErrTaskIDEmpty     = errors.New("task ID cannot be empty")
	ErrTaskUserIDEmpty = errors.New("task user ID cannot be empty")
	ErrTaskNameEmpty   = errors.New("task name cannot be empty")
	ErrTaskNameTooLong = errors.New("task name is too long")
)

// Task is a to-do item owned by a single user.
type Task struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTask creates a new Task for userID.
func NewTask(userID uuid.UUID, name string, done bool) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Done:      done,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}
	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}
	if t.Name == "" {
		return ErrTaskNameEmpty
	}
	if utf8.RuneCountInString(t.Name) > MaxTaskNameLength {
		return ErrTaskNameTooLong
	}
	return nil
}

// Apply updates the mutable fields that are set and bumps UpdatedAt.
func (t *Task) Apply(name *string, done *bool) error {
	updated := *t
	if name != nil {
		updated.Name = strings.TrimSpace(*name)
	}
	if done != nil {
		updated.Done = *done
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	updated.UpdatedAt = time.Now().UTC()
	*t = updated
	return nil
}
