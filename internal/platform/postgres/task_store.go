package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/redact"
	"github.com/phrazzld/todo-reminders/internal/store"
)

const taskColumns = `owner_id, id, text, completed, reminder_time, reminder_recipient,
	reminder_note, reminder_active, schedule_handle, created_at, updated_at`

// PostgresTaskStore implements store.TaskStore on the tasks table.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: a store without a database is a wiring error
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	r := task.Reminder
	_, err := s.db.ExecContext(ctx, query,
		task.OwnerID,
		task.ID,
		task.Text,
		task.Completed,
		r.Time,
		nullString(r.Recipient),
		nullString(r.Note),
		r.Active,
		nullString(r.ScheduleHandle),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", task.ID.String()))
		return mapEntityError(err, store.ErrTaskNotFound, store.ErrDuplicate)
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	return nil
}

// Get implements store.TaskStore.Get.
func (s *PostgresTaskStore) Get(ctx context.Context, ownerID string, taskID uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 AND id = $2`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, ownerID, taskID))
	if err != nil {
		return nil, s.fail(ctx, "get", taskID, err)
	}
	return task, nil
}

// ListByOwner implements store.TaskStore.ListByOwner.
func (s *PostgresTaskStore) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY created_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", redact.Error(err)))
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}
	return tasks, nil
}

// Update implements store.TaskStore.Update. The completion flag, text and
// reminder fields change in one conditional statement.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	ownerID string,
	taskID uuid.UUID,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE tasks SET
			text               = COALESCE($3, text),
			completed          = COALESCE($4, completed),
			reminder_time      = CASE WHEN $5 THEN NULL ELSE reminder_time END,
			reminder_recipient = CASE WHEN $5 THEN NULL ELSE reminder_recipient END,
			reminder_note      = CASE WHEN $5 THEN NULL ELSE reminder_note END,
			reminder_active    = CASE WHEN $5 THEN FALSE ELSE reminder_active END,
			schedule_handle    = CASE WHEN $5 THEN NULL ELSE schedule_handle END,
			updated_at         = $6
		WHERE owner_id = $1 AND id = $2
		RETURNING ` + taskColumns

	var text sql.NullString
	if patch.Text != nil {
		text = sql.NullString{String: *patch.Text, Valid: true}
	}
	var completed sql.NullBool
	if patch.Completed != nil {
		completed = sql.NullBool{Bool: *patch.Completed, Valid: true}
	}

	task, err := scanTask(s.db.QueryRowContext(ctx, query,
		ownerID, taskID, text, completed, patch.ClearReminder, time.Now().UTC()))
	if err != nil {
		return nil, s.fail(ctx, "update", taskID, err)
	}
	return task, nil
}

// SetReminder implements store.TaskStore.SetReminder.
func (s *PostgresTaskStore) SetReminder(
	ctx context.Context,
	ownerID string,
	taskID uuid.UUID,
	reminder domain.ReminderState,
) (*domain.Task, error) {
	if err := reminder.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE tasks SET
			reminder_time      = $3,
			reminder_recipient = $4,
			reminder_note      = $5,
			reminder_active    = $6,
			schedule_handle    = $7,
			updated_at         = $8
		WHERE owner_id = $1 AND id = $2
		RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(ctx, query,
		ownerID,
		taskID,
		reminder.Time,
		nullString(reminder.Recipient),
		nullString(reminder.Note),
		reminder.Active,
		nullString(reminder.ScheduleHandle),
		time.Now().UTC(),
	))
	if err != nil {
		return nil, s.fail(ctx, "set_reminder", taskID, err)
	}
	return task, nil
}

// ClearReminder implements store.TaskStore.ClearReminder.
func (s *PostgresTaskStore) ClearReminder(ctx context.Context, ownerID string, taskID uuid.UUID) (*domain.Task, error) {
	return s.Update(ctx, ownerID, taskID, domain.TaskPatch{ClearReminder: true})
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, ownerID string, taskID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE owner_id = $1 AND id = $2`, ownerID, taskID)
	if err != nil {
		return s.fail(ctx, "delete", taskID, err)
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

func (s *PostgresTaskStore) fail(ctx context.Context, op string, taskID uuid.UUID, err error) error {
	mapped := mapEntityError(err, store.ErrTaskNotFound, store.ErrDuplicate)
	log := logger.FromContextOrDefault(ctx, s.logger)
	if store.IsNotFoundError(mapped) {
		log.Debug("task not found", slog.String("operation", op), slog.String("task_id", taskID.String()))
	} else {
		log.Error("task store operation failed",
			slog.String("operation", op),
			slog.String("task_id", taskID.String()),
			slog.String("error", redact.Error(err)))
	}
	return mapped
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task      domain.Task
		at        sql.NullTime
		recipient sql.NullString
		note      sql.NullString
		handle    sql.NullString
	)
	if err := row.Scan(
		&task.OwnerID,
		&task.ID,
		&task.Text,
		&task.Completed,
		&at,
		&recipient,
		&note,
		&task.Reminder.Active,
		&handle,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if at.Valid {
		t := at.Time.UTC()
		task.Reminder.Time = &t
	}
	task.Reminder.Recipient = recipient.String
	task.Reminder.Note = note.String
	task.Reminder.ScheduleHandle = handle.String
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
