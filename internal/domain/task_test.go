package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	userID := uuid.New()

	task, err := NewTask(userID, "  write docs ", false)
	require.NoError(t, err)
	assert.Equal(t, "write docs", task.Name)
	assert.Equal(t, userID, task.UserID)
	assert.False(t, task.Done)

	_, err = NewTask(userID, "   ", false)
	assert.ErrorIs(t, err, ErrTaskNameEmpty)

	_, err = NewTask(uuid.Nil, "name", false)
	assert.ErrorIs(t, err, ErrTaskUserIDEmpty)

	_, err = NewTask(userID, strings.Repeat("x", MaxTaskNameLength+1), false)
	assert.ErrorIs(t, err, ErrTaskNameTooLong)
}

func TestTaskApply(t *testing.T) {
	task, err := NewTask(uuid.New(), "original", false)
	require.NoError(t, err)
	before := task.UpdatedAt

	done := true
	require.NoError(t, task.Apply(nil, &done))
	assert.True(t, task.Done)
	assert.Equal(t, "original", task.Name)
	assert.False(t, task.UpdatedAt.Before(before))

	empty := ""
	err = task.Apply(&empty, nil)
	assert.ErrorIs(t, err, ErrTaskNameEmpty)
	assert.Equal(t, "original", task.Name, "a failed update leaves the task untouched")
}
