package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
)

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	TaskText string `json:"taskText" validate:"required,max=2000"`
}

// UpdateTaskRequest defines the payload for a partial task update.
// Absent fields are left unchanged.
type UpdateTaskRequest struct {
	TaskText    *string `json:"taskText,omitempty"    validate:"omitempty,max=2000"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}

// SetReminderRequest defines the payload for setting or replacing a task's reminder.
type SetReminderRequest struct {
	ReminderTime    string `json:"reminderTime"              validate:"required"`
	ReminderEmail   string `json:"reminderEmail"             validate:"required,email"`
	ReminderMessage string `json:"reminderMessage,omitempty" validate:"max=1000"`
}

// TaskResponse is the API representation of a task.
type TaskResponse struct {
	TaskID          uuid.UUID  `json:"taskId"`
	TaskText        string     `json:"taskText"`
	IsCompleted     bool       `json:"isCompleted"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	ReminderTime    *time.Time `json:"reminderTime,omitempty"`
	ReminderEmail   string     `json:"reminderEmail,omitempty"`
	ReminderMessage string     `json:"reminderMessage,omitempty"`
	ReminderActive  bool       `json:"reminderActive"`
	ScheduleHandle  string     `json:"scheduleHandle,omitempty"`
}

// ReminderResponse describes the reminder recorded by setReminder.
type ReminderResponse struct {
	ReminderTime   time.Time `json:"reminderTime"`
	Recipient      string    `json:"recipient"`
	Note           string    `json:"note"`
	ScheduleHandle string    `json:"scheduleHandle"`
}

// ClearReminderResponse acknowledges clearReminder.
type ClearReminderResponse struct {
	Cleared bool `json:"cleared"`
}

// DeleteTaskResponse acknowledges a task deletion.
type DeleteTaskResponse struct {
	Message        string `json:"message"`
	AlreadyDeleted bool   `json:"alreadyDeleted"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		TaskID:          t.ID,
		TaskText:        t.Text,
		IsCompleted:     t.Completed,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		ReminderTime:    t.Reminder.Time,
		ReminderEmail:   t.Reminder.Recipient,
		ReminderMessage: t.Reminder.Note,
		ReminderActive:  t.Reminder.Active,
		ScheduleHandle:  t.Reminder.ScheduleHandle,
	}
}

func reminderToResponse(t *domain.Task) ReminderResponse {
	resp := ReminderResponse{
		Recipient:      t.Reminder.Recipient,
		Note:           t.Reminder.Note,
		ScheduleHandle: t.Reminder.ScheduleHandle,
	}
	if t.Reminder.Time != nil {
		resp.ReminderTime = *t.Reminder.Time
	}
	return resp
}
