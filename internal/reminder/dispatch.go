package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/notify"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/redact"
)

// OpDispatch names the dispatch handler in errors and logs.
const OpDispatch = "dispatch_reminder"

// NotificationSubject is the subject of every reminder notification.
const NotificationSubject = "Reminder: Your To-Do Task!"

const notificationBody = "Hello,\n\n" +
	"A reminder was scheduled for task ID: %s.\n\n" +
	"Your custom message: %s\n\n" +
	"(This reminder was intended for user associated with email: %s)\n\n" +
	"Thanks,\nYour To-Do App"

// DispatchHandler receives fired reminder entries and publishes a
// notification for each.
type DispatchHandler struct {
	dispatcher notify.Dispatcher
	logger     *slog.Logger
}

// NewDispatchHandler creates a DispatchHandler publishing to dispatcher.
func NewDispatchHandler(dispatcher notify.Dispatcher, log *slog.Logger) (*DispatchHandler, error) {
	if dispatcher == nil {
		return nil, errors.New("reminder: dispatcher cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &DispatchHandler{
		dispatcher: dispatcher,
		logger:     log.With("component", "reminder_dispatch"),
	}, nil
}

// Handle decodes raw as a domain.ReminderPayload and publishes the reminder.
// A payload without a recipient or task ID fails with ErrInvalidPayload and
// nothing is published. Publish failures are returned; the entry has already
// been consumed, so they are not retried.
func (h *DispatchHandler) Handle(ctx context.Context, raw []byte) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	payload, err := DecodePayload(raw)
	if err != nil {
		log.Warn("rejected reminder payload", "error", redact.Error(err))
		return &Error{Kind: KindValidation, Op: OpDispatch, Step: StepDecode, Err: err}
	}

	msg := FormatNotification(payload)
	if err := h.dispatcher.Publish(ctx, msg); err != nil {
		log.Error("failed to publish reminder",
			"task_id", payload.TaskID,
			"error", redact.Error(err))
		return &Error{Kind: KindDependency, Op: OpDispatch, Step: StepPublish, Err: err}
	}

	log.Info("reminder published", "task_id", payload.TaskID)
	return nil
}

// DecodePayload parses and validates a fired entry's payload.
func DecodePayload(raw []byte) (domain.ReminderPayload, error) {
	var p domain.ReminderPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return p, nil
}

// FormatNotification builds the message published for a reminder.
func FormatNotification(p domain.ReminderPayload) notify.Message {
	return notify.Message{
		Subject: NotificationSubject,
		Body:    fmt.Sprintf(notificationBody, p.TaskID, p.Note, p.Recipient),
	}
}
