package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
)

// TaskStore defines the interface for task record persistence. Records are
// keyed by (ownerID, taskID); every write is conditional on the record
// existing and reports ErrTaskNotFound otherwise.
type TaskStore interface {
	// Create saves a new task. Returns validation errors from the domain Task
	// if its data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// Get retrieves a task by key.
	// Returns ErrTaskNotFound if the task does not exist for that owner.
	Get(ctx context.Context, ownerID string, taskID uuid.UUID) (*domain.Task, error)

	// ListByOwner returns every task of an owner, newest first.
	// Returns an empty slice if the owner has no tasks.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error)

	// Update applies a partial update in a single statement and returns the
	// resulting record. When patch.ClearReminder is set the reminder fields are
	// cleared by the same statement.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, ownerID string, taskID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)

	// SetReminder overwrites the reminder fields of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	SetReminder(ctx context.Context, ownerID string, taskID uuid.UUID, reminder domain.ReminderState) (*domain.Task, error)

	// ClearReminder removes every reminder field of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	ClearReminder(ctx context.Context, ownerID string, taskID uuid.UUID) (*domain.Task, error)

	// Delete removes a task.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, ownerID string, taskID uuid.UUID) error
}
