package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/redact"
	"github.com/phrazzld/todo-reminders/internal/reminder"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// ReminderLifecycle is the part of the reminder coordinator the task flows
// depend on.
type ReminderLifecycle interface {
	// OnTaskCompleted is called before an update is written. It may set
	// patch.ClearReminder so the same write clears the reminder fields.
	OnTaskCompleted(ctx context.Context, task *domain.Task, patch *domain.TaskPatch) reminder.CleanupOutcome

	// OnTaskDeleted removes the task's registry entry and then the task.
	OnTaskDeleted(ctx context.Context, ownerID string, taskID uuid.UUID) (reminder.DeleteResult, error)
}

// TaskService provides task operations for a single owner at a time.
type TaskService interface {
	// CreateTask creates an incomplete task without a reminder.
	CreateTask(ctx context.Context, ownerID, text string) (*domain.Task, error)

	// ListTasks returns the owner's tasks, newest first.
	ListTasks(ctx context.Context, ownerID string) ([]*domain.Task, error)

	// GetTask returns one task.
	GetTask(ctx context.Context, ownerID string, taskID uuid.UUID) (*domain.Task, error)

	// UpdateTask applies patch. Completing a task clears its reminder.
	UpdateTask(ctx context.Context, ownerID string, taskID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)

	// DeleteTask deletes a task and its reminder. Deleting a missing task
	// succeeds with AlreadyDeleted set.
	DeleteTask(ctx context.Context, ownerID string, taskID uuid.UUID) (reminder.DeleteResult, error)
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	tasks     store.TaskStore
	reminders ReminderLifecycle
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(tasks store.TaskStore, reminders ReminderLifecycle, log *slog.Logger) (TaskService, error) {
	if tasks == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "tasks cannot be nil",
		}
	}
	if reminders == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "reminders cannot be nil",
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return &taskServiceImpl{
		tasks:     tasks,
		reminders: reminders,
		logger:    log.With("component", "task_service"),
	}, nil
}

// CreateTask implements TaskService.
func (s *taskServiceImpl) CreateTask(ctx context.Context, ownerID, text string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(ownerID, text)
	if err != nil {
		return nil, NewTaskServiceError("create_task", "invalid task", err)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to save task",
			"error", redact.Error(err),
			"owner_id", ownerID)
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	log.Debug("task created", "owner_id", ownerID, "task_id", task.ID.String())
	return task, nil
}

// ListTasks implements TaskService.
func (s *taskServiceImpl) ListTasks(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	if ownerID == "" {
		return nil, NewTaskServiceError("list_tasks", "invalid owner", domain.ErrEmptyOwnerID)
	}
	tasks, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			"error", redact.Error(err),
			"owner_id", ownerID)
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// GetTask implements TaskService.
func (s *taskServiceImpl) GetTask(ctx context.Context, ownerID string, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, NewTaskServiceError("get_task", "failed to get task", err)
	}
	return task, nil
}

// UpdateTask implements TaskService. When the patch completes the task, the
// reminder coordinator removes the registry entry and the reminder fields are
// cleared by the same store write as the completion flag.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	ownerID string,
	taskID uuid.UUID,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		"owner_id", ownerID,
		"task_id", taskID.String())

	if patch.IsEmpty() {
		return nil, NewTaskServiceError("update_task", "invalid update", ErrEmptyUpdate)
	}
	if err := patch.Validate(); err != nil {
		return nil, NewTaskServiceError("update_task", "invalid update", err)
	}

	current, err := s.tasks.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, NewTaskServiceError("update_task", "failed to get task", err)
	}

	outcome := s.reminders.OnTaskCompleted(ctx, current, &patch)
	if outcome.Failed() {
		log.Warn("reminder cleanup failed on completion", "kind", outcome.Kind.String())
	}

	updated, err := s.tasks.Update(ctx, ownerID, taskID, patch)
	if err != nil {
		log.Error("failed to update task", "error", redact.Error(err))
		return nil, NewTaskServiceError("update_task", "failed to update task", err)
	}
	return updated, nil
}

// DeleteTask implements TaskService.
func (s *taskServiceImpl) DeleteTask(
	ctx context.Context,
	ownerID string,
	taskID uuid.UUID,
) (reminder.DeleteResult, error) {
	result, err := s.reminders.OnTaskDeleted(ctx, ownerID, taskID)
	if err != nil {
		return result, NewTaskServiceError("delete_task", "failed to delete task", err)
	}
	return result, nil
}
