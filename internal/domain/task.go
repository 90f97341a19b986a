package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTaskTextLength bounds the size of a task's text.
const MaxTaskTextLength = 2000

// Task is a to-do item owned by a single user.
type Task struct {
	OwnerID   string        `json:"owner_id"`
	ID        uuid.UUID     `json:"id"`
	Text      string        `json:"text"`
	Completed bool          `json:"completed"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Reminder  ReminderState `json:"reminder"`
}

// NewTask creates a new, incomplete Task with a fresh ID.
// Returns an error if validation fails.
func NewTask(ownerID, text string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		OwnerID:   ownerID,
		ID:        uuid.New(),
		Text:      strings.TrimSpace(text),
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
	if t.OwnerID == "" {
		return ErrEmptyOwnerID
	}
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if strings.TrimSpace(t.Text) == "" {
		return ErrEmptyTaskText
	}
	if len(t.Text) > MaxTaskTextLength {
		return ErrTaskTextLength
	}
	return t.Reminder.Validate()
}

// TaskPatch describes a partial update of a task record. Nil fields are left
// unchanged. ClearReminder removes every reminder field in the same write.
type TaskPatch struct {
	Text          *string
	Completed     *bool
	ClearReminder bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Text == nil && p.Completed == nil && !p.ClearReminder
}

// Completes reports whether applying p to t moves the task from incomplete to complete.
func (p TaskPatch) Completes(t *Task) bool {
	return p.Completed != nil && *p.Completed && !t.Completed
}

// Validate checks the patch's field values.
func (p TaskPatch) Validate() error {
	if p.Text != nil {
		text := strings.TrimSpace(*p.Text)
		if text == "" {
			return ErrEmptyTaskText
		}
		if len(text) > MaxTaskTextLength {
			return ErrTaskTextLength
		}
	}
	return nil
}
