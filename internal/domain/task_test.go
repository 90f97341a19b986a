package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	t.Run("valid task", func(t *testing.T) {
		task, err := NewTask("user-1", "  buy milk  ")
		require.NoError(t, err)
		assert.Equal(t, "user-1", task.OwnerID)
		assert.Equal(t, "buy milk", task.Text)
		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.False(t, task.Completed)
		assert.True(t, task.Reminder.IsZero())
		assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	})

	t.Run("empty owner", func(t *testing.T) {
		_, err := NewTask("", "buy milk")
		assert.ErrorIs(t, err, ErrEmptyOwnerID)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("blank text", func(t *testing.T) {
		_, err := NewTask("user-1", "   ")
		assert.ErrorIs(t, err, ErrEmptyTaskText)
	})

	t.Run("text too long", func(t *testing.T) {
		_, err := NewTask("user-1", strings.Repeat("x", MaxTaskTextLength+1))
		assert.ErrorIs(t, err, ErrTaskTextLength)
	})
}

func TestTaskValidateReminderPairing(t *testing.T) {
	task, err := NewTask("user-1", "file taxes")
	require.NoError(t, err)

	task.Reminder.Active = true
	assert.ErrorIs(t, task.Validate(), ErrValidation)

	task.Reminder.ScheduleHandle = ScheduleHandleFor(task.OwnerID, task.ID)
	at := time.Now().Add(time.Hour)
	task.Reminder.Time = &at
	assert.ErrorIs(t, task.Validate(), ErrEmptyRecipient)

	task.Reminder.Recipient = "me@example.com"
	assert.NoError(t, task.Validate())

	task.Reminder.Active = false
	assert.ErrorIs(t, task.Validate(), ErrValidation)
}

func TestTaskPatch(t *testing.T) {
	yes, no := true, false
	open := &Task{Completed: false}
	done := &Task{Completed: true}

	assert.True(t, TaskPatch{}.IsEmpty())
	assert.False(t, TaskPatch{ClearReminder: true}.IsEmpty())

	assert.True(t, TaskPatch{Completed: &yes}.Completes(open))
	assert.False(t, TaskPatch{Completed: &yes}.Completes(done))
	assert.False(t, TaskPatch{Completed: &no}.Completes(open))
	assert.False(t, TaskPatch{}.Completes(open))

	blank := " "
	assert.ErrorIs(t, TaskPatch{Text: &blank}.Validate(), ErrEmptyTaskText)
	text := "ok"
	assert.NoError(t, TaskPatch{Text: &text}.Validate())
}
