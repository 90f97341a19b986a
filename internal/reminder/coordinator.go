package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/redact"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// Operation names attached to errors and log entries.
const (
	OpSetReminder   = "set_reminder"
	OpClearReminder = "clear_reminder"
	OpCompleteTask  = "complete_task"
	OpDeleteTask    = "delete_task"
)

// ScheduleRegistry is the registry client the coordinator drives. Every
// method reports a missing entry with an error wrapping store.ErrNotFound.
type ScheduleRegistry interface {
	Get(ctx context.Context, name string) (*domain.Schedule, error)
	Create(ctx context.Context, s *domain.Schedule) error
	Update(ctx context.Context, s *domain.Schedule) error
	Delete(ctx context.Context, name string) error
}

// Config tunes a Coordinator.
type Config struct {
	// Target is the registry target that delivers reminder notifications.
	Target string
	// MinLeadTime is how far past "now" a reminder must be. Zero means
	// domain.DefaultMinLeadTime.
	MinLeadTime time.Duration
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// SetReminderInput is the caller's desired reminder.
type SetReminderInput struct {
	// ReminderTime is an ISO-8601 instant; values without an offset are UTC.
	ReminderTime string
	Recipient    string
	// Note is optional; a default naming the task is stored when empty.
	Note string
}

// DeleteResult reports how a task deletion went.
type DeleteResult struct {
	// AlreadyDeleted is true when no task record existed.
	AlreadyDeleted bool
	// Cleanup is the outcome of removing the task's registry entry.
	Cleanup CleanupOutcome
}

// Coordinator is the single authority for reminder state transitions.
type Coordinator struct {
	tasks    store.TaskStore
	registry ScheduleRegistry
	config   Config
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator.
// It returns an error if any of the required dependencies are missing.
func NewCoordinator(
	tasks store.TaskStore,
	registry ScheduleRegistry,
	config Config,
	log *slog.Logger,
) (*Coordinator, error) {
	if tasks == nil {
		return nil, errors.New("reminder: task store cannot be nil")
	}
	if registry == nil {
		return nil, errors.New("reminder: schedule registry cannot be nil")
	}
	if strings.TrimSpace(config.Target) == "" {
		return nil, errors.New("reminder: notification target cannot be empty")
	}
	if config.MinLeadTime <= 0 {
		config.MinLeadTime = domain.DefaultMinLeadTime
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}

	return &Coordinator{
		tasks:    tasks,
		registry: registry,
		config:   config,
		logger:   log.With("component", "reminder_coordinator"),
	}, nil
}

// SetOrUpdateReminder binds a one-shot registry entry to the task and records
// it on the task. The entry is written before the task record; if the record
// write fails the entry is deleted again and the record error is returned.
func (c *Coordinator) SetOrUpdateReminder(
	ctx context.Context,
	ownerID string,
	taskID uuid.UUID,
	in SetReminderInput,
) (*domain.Task, error) {
	log := c.log(ctx, OpSetReminder, ownerID, taskID)

	fireAt, recipient, note, err := c.validateInput(ownerID, taskID, in)
	if err != nil {
		return nil, wrap(OpSetReminder, StepValidate, err)
	}

	task, err := c.tasks.Get(ctx, ownerID, taskID)
	if err != nil {
		if KindOf(err) == KindDependency {
			log.Error("failed to read task", "error", redact.Error(err))
		}
		return nil, wrap(OpSetReminder, StepTaskRead, err)
	}

	handle := domain.ScheduleHandleFor(ownerID, taskID)
	exists, err := c.probe(ctx, handle)
	if err != nil {
		log.Error("failed to probe schedule registry", "handle", handle, "error", redact.Error(err))
		return nil, wrap(OpSetReminder, StepRegistryProbe, err)
	}

	if legacy := task.Reminder.ScheduleHandle; legacy != "" && legacy != handle {
		c.removeEntry(ctx, log, legacy)
	}

	if note == "" {
		note = domain.DefaultReminderNote(taskID)
	}
	payload, err := json.Marshal(domain.ReminderPayload{
		OwnerID:   ownerID,
		TaskID:    taskID.String(),
		Recipient: recipient,
		Note:      note,
	})
	if err != nil {
		return nil, wrap(OpSetReminder, StepRegistryWrite, fmt.Errorf("encode reminder payload: %w", err))
	}
	entry, err := domain.NewOneShotSchedule(handle, "", fireAt, c.config.Target, payload)
	if err != nil {
		return nil, wrap(OpSetReminder, StepRegistryWrite, err)
	}

	if err := c.putEntry(ctx, entry, exists); err != nil {
		log.Error("failed to write schedule entry", "handle", handle, "error", redact.Error(err))
		return nil, &Error{Kind: KindDependency, Op: OpSetReminder, Step: StepRegistryWrite, Err: err}
	}

	at := entry.FireAt
	updated, err := c.tasks.SetReminder(ctx, ownerID, taskID, domain.ReminderState{
		Time:           &at,
		Recipient:      recipient,
		Note:           note,
		Active:         true,
		ScheduleHandle: handle,
	})
	if err != nil {
		log.Error("failed to record reminder on task", "handle", handle, "error", redact.Error(err))
		if outcome := c.removeEntry(ctx, log, handle); outcome.Failed() {
			log.Error("compensation failed, schedule entry left without a reminder record",
				"handle", handle,
				"kind", KindCompensation.String())
			return nil, &Error{Kind: KindCompensation, Op: OpSetReminder, Step: StepTaskCommit, Err: err}
		}
		return nil, wrap(OpSetReminder, StepTaskCommit, err)
	}

	log.Info("reminder scheduled", "handle", handle, "fire_at", at.Format(time.RFC3339))
	return updated, nil
}

// ClearReminder removes the task's reminder. Registry deletion is best effort;
// the task's reminder fields are cleared regardless. Clearing a task without
// reminder fields changes nothing.
func (c *Coordinator) ClearReminder(ctx context.Context, ownerID string, taskID uuid.UUID) (*domain.Task, error) {
	log := c.log(ctx, OpClearReminder, ownerID, taskID)

	if err := validateKey(ownerID, taskID); err != nil {
		return nil, wrap(OpClearReminder, StepValidate, err)
	}

	task, err := c.tasks.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, wrap(OpClearReminder, StepTaskRead, err)
	}
	if task.Reminder.IsZero() {
		return task, nil
	}

	if handle := task.Reminder.ScheduleHandle; handle != "" {
		c.removeEntry(ctx, log, handle)
	}

	updated, err := c.tasks.ClearReminder(ctx, ownerID, taskID)
	if err != nil {
		if KindOf(err) == KindDependency {
			log.Error("failed to clear reminder on task", "error", redact.Error(err))
		}
		return nil, wrap(OpClearReminder, StepTaskCommit, err)
	}

	log.Info("reminder cleared")
	return updated, nil
}

// OnTaskCompleted is called by the task update flow before it writes patch.
// When the patch completes a task that holds a registry entry, the entry is
// deleted (best effort) and the patch is extended to clear the reminder
// fields in the same store write as the completion flag. A task without an
// entry is left as is.
func (c *Coordinator) OnTaskCompleted(ctx context.Context, task *domain.Task, patch *domain.TaskPatch) CleanupOutcome {
	if task == nil || patch == nil || !patch.Completes(task) {
		return CleanupOutcome{}
	}
	handle := task.Reminder.ScheduleHandle
	if handle == "" {
		return CleanupOutcome{}
	}

	patch.ClearReminder = true
	return c.removeEntry(ctx, c.log(ctx, OpCompleteTask, task.OwnerID, task.ID), handle)
}

// OnTaskDeleted removes the task's registry entry (best effort) and then the
// task record. A task that no longer exists is reported as already deleted.
func (c *Coordinator) OnTaskDeleted(ctx context.Context, ownerID string, taskID uuid.UUID) (DeleteResult, error) {
	log := c.log(ctx, OpDeleteTask, ownerID, taskID)

	if err := validateKey(ownerID, taskID); err != nil {
		return DeleteResult{}, wrap(OpDeleteTask, StepValidate, err)
	}

	task, err := c.tasks.Get(ctx, ownerID, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return DeleteResult{AlreadyDeleted: true}, nil
		}
		log.Error("failed to read task", "error", redact.Error(err))
		return DeleteResult{}, wrap(OpDeleteTask, StepTaskRead, err)
	}

	var result DeleteResult
	if handle := task.Reminder.ScheduleHandle; handle != "" {
		result.Cleanup = c.removeEntry(ctx, log, handle)
	}

	if err := c.tasks.Delete(ctx, ownerID, taskID); err != nil {
		if store.IsNotFoundError(err) {
			result.AlreadyDeleted = true
			return result, nil
		}
		log.Error("failed to delete task", "error", redact.Error(err))
		return result, wrap(OpDeleteTask, StepTaskDelete, err)
	}

	log.Info("task deleted", "registry_cleanup_failed", result.Cleanup.Failed())
	return result, nil
}

func (c *Coordinator) validateInput(
	ownerID string,
	taskID uuid.UUID,
	in SetReminderInput,
) (time.Time, string, string, error) {
	if err := validateKey(ownerID, taskID); err != nil {
		return time.Time{}, "", "", err
	}
	at, err := domain.ParseReminderTime(in.ReminderTime)
	if err != nil {
		return time.Time{}, "", "", err
	}
	if err := domain.ValidateReminderTime(at, c.config.Now(), c.config.MinLeadTime); err != nil {
		return time.Time{}, "", "", err
	}
	recipient := strings.TrimSpace(in.Recipient)
	if recipient == "" {
		return time.Time{}, "", "", domain.ErrEmptyRecipient
	}
	note := strings.TrimSpace(in.Note)
	if len(note) > domain.MaxReminderNoteLength {
		return time.Time{}, "", "", domain.ErrReminderNoteLength
	}
	return at, recipient, note, nil
}

func validateKey(ownerID string, taskID uuid.UUID) error {
	if strings.TrimSpace(ownerID) == "" {
		return domain.ErrEmptyOwnerID
	}
	if taskID == uuid.Nil {
		return domain.ErrEmptyTaskID
	}
	return nil
}

// probe reports whether an entry called name exists.
func (c *Coordinator) probe(ctx context.Context, name string) (bool, error) {
	_, err := c.registry.Get(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case store.IsNotFoundError(err):
		return false, nil
	default:
		return false, err
	}
}

// putEntry creates or updates entry. A create that loses a race to another
// writer falls back to update, and an update whose entry vanished (fired or
// deleted concurrently) falls back to create.
func (c *Coordinator) putEntry(ctx context.Context, entry *domain.Schedule, exists bool) error {
	if exists {
		err := c.registry.Update(ctx, entry)
		if !store.IsNotFoundError(err) {
			return err
		}
		return c.registry.Create(ctx, entry)
	}

	err := c.registry.Create(ctx, entry)
	if !store.IsDuplicateError(err) {
		return err
	}
	return c.registry.Update(ctx, entry)
}

// removeEntry deletes the entry called name. An entry that is already gone
// counts as removed; other failures are logged and reported in the outcome.
func (c *Coordinator) removeEntry(ctx context.Context, log *slog.Logger, name string) CleanupOutcome {
	err := c.registry.Delete(ctx, name)
	if err == nil || store.IsNotFoundError(err) {
		return CleanupOutcome{Attempted: true, Succeeded: true}
	}
	log.Warn("failed to delete schedule entry", "handle", name, "error", redact.Error(err))
	return CleanupOutcome{Attempted: true, Kind: KindDependency}
}

func (c *Coordinator) log(ctx context.Context, op, ownerID string, taskID uuid.UUID) *slog.Logger {
	return logger.FromContextOrDefault(ctx, c.logger).With(
		"op", op,
		"owner_id", ownerID,
		"task_id", taskID.String(),
	)
}
