package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/api/shared"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/redact"
	"github.com/phrazzld/todo-reminders/internal/reminder"
	"github.com/phrazzld/todo-reminders/internal/service"
)

// ReminderService is the reminder surface the HTTP layer calls.
// *reminder.Coordinator implements it.
type ReminderService interface {
	SetOrUpdateReminder(
		ctx context.Context,
		ownerID string,
		taskID uuid.UUID,
		in reminder.SetReminderInput,
	) (*domain.Task, error)
	ClearReminder(ctx context.Context, ownerID string, taskID uuid.UUID) (*domain.Task, error)
}

// TaskHandler handles task and reminder HTTP requests.
type TaskHandler struct {
	tasks     service.TaskService
	reminders ReminderService
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks service.TaskService, reminders ReminderService, log *slog.Logger) *TaskHandler {
	if tasks == nil || reminders == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task and reminder services cannot be nil for TaskHandler")
	}
	if log == nil {
		log = slog.Default()
	}

	return &TaskHandler{
		tasks:     tasks,
		reminders: reminders,
		logger:    log.With(slog.String("component", "task_handler")),
	}
}

// decodeAndValidate reads the JSON body into req and validates it, writing a
// 400 response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, log *slog.Logger, req interface{}) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		log.Warn("validation error", slog.String("error", redact.Error(err)))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), ownerID, req.TaskText)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListTasks(r.Context(), ownerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetTask handles GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, taskID, ok := handleOwnerAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(r.Context(), ownerID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PUT /api/tasks/{id}. Completing a task also removes its reminder.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, taskID, ok := handleOwnerAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), ownerID, taskID, domain.TaskPatch{
		Text:      req.TaskText,
		Completed: req.IsCompleted,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /api/tasks/{id}. A task that is already gone is
// reported with 200 and a distinct message.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, taskID, ok := handleOwnerAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	result, err := h.tasks.DeleteTask(r.Context(), ownerID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	if result.Cleanup.Failed() {
		log.Warn("task deleted but schedule entry cleanup failed",
			slog.String("task_id", taskID.String()),
			slog.String("kind", result.Cleanup.Kind.String()))
	}

	resp := DeleteTaskResponse{Message: "Task deleted"}
	if result.AlreadyDeleted {
		resp = DeleteTaskResponse{Message: "Task was already deleted", AlreadyDeleted: true}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// SetReminder handles PUT /api/tasks/{id}/reminder
func (h *TaskHandler) SetReminder(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, taskID, ok := handleOwnerAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SetReminderRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}

	task, err := h.reminders.SetOrUpdateReminder(r.Context(), ownerID, taskID, reminder.SetReminderInput{
		ReminderTime: req.ReminderTime,
		Recipient:    req.ReminderEmail,
		Note:         req.ReminderMessage,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to set reminder")
		return
	}

	log.Debug("reminder set",
		slog.String("task_id", taskID.String()),
		slog.String("schedule_handle", task.Reminder.ScheduleHandle))
	shared.RespondWithJSON(w, r, http.StatusOK, reminderToResponse(task))
}

// ClearReminder handles DELETE /api/tasks/{id}/reminder
func (h *TaskHandler) ClearReminder(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, taskID, ok := handleOwnerAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if _, err := h.reminders.ClearReminder(r.Context(), ownerID, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to clear reminder")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ClearReminderResponse{Cleared: true})
}
