package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/redact"
	"github.com/phrazzld/todo-reminders/internal/store"
)

const scheduleColumns = `group_name, name, fire_at, target, payload, action_after_completion,
	flexible_window, fired_at, created_at, updated_at`

// PostgresScheduleStore implements store.ScheduleStore on the schedules table.
type PostgresScheduleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresScheduleStore creates a new PostgreSQL implementation of the ScheduleStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresScheduleStore(db store.DBTX, logger *slog.Logger) *PostgresScheduleStore {
	if db == nil {
		// ALLOW-PANIC: a store without a database is a wiring error
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresScheduleStore{
		db:     db,
		logger: logger.With(slog.String("component", "schedule_store")),
	}
}

var _ store.ScheduleStore = (*PostgresScheduleStore)(nil)

// WithTx implements store.ScheduleStore.WithTx.
func (s *PostgresScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore {
	return &PostgresScheduleStore{db: tx, logger: s.logger}
}

// Get implements store.ScheduleStore.Get.
func (s *PostgresScheduleStore) Get(ctx context.Context, group, name string) (*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE group_name = $1 AND name = $2`
	sched, err := scanSchedule(s.db.QueryRowContext(ctx, query, group, name))
	if err != nil {
		return nil, s.fail(ctx, "get", name, err)
	}
	return sched, nil
}

// Create implements store.ScheduleStore.Create.
func (s *PostgresScheduleStore) Create(ctx context.Context, sched *domain.Schedule) error {
	if err := sched.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8, $9)
	`
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query,
		sched.Group,
		sched.Name,
		sched.FireAt,
		sched.Target,
		payloadOrEmpty(sched.Payload),
		string(sched.ActionAfterCompletion),
		flexibleWindow(sched.FlexibleWindow),
		now,
		now,
	)
	if err != nil {
		return s.fail(ctx, "create", sched.Name, err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("schedule created",
		slog.String("schedule", sched.Name),
		slog.Time("fire_at", sched.FireAt))
	return nil
}

// Update implements store.ScheduleStore.Update. Updating an entry re-arms it.
func (s *PostgresScheduleStore) Update(ctx context.Context, sched *domain.Schedule) error {
	if err := sched.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE schedules SET
			fire_at                 = $3,
			target                  = $4,
			payload                 = $5,
			action_after_completion = $6,
			flexible_window         = $7,
			fired_at                = NULL,
			updated_at              = $8
		WHERE group_name = $1 AND name = $2
	`
	result, err := s.db.ExecContext(ctx, query,
		sched.Group,
		sched.Name,
		sched.FireAt,
		sched.Target,
		payloadOrEmpty(sched.Payload),
		string(sched.ActionAfterCompletion),
		flexibleWindow(sched.FlexibleWindow),
		time.Now().UTC(),
	)
	if err != nil {
		return s.fail(ctx, "update", sched.Name, err)
	}
	return checkRowsAffected(result, store.ErrScheduleNotFound)
}

// Delete implements store.ScheduleStore.Delete.
func (s *PostgresScheduleStore) Delete(ctx context.Context, group, name string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM schedules WHERE group_name = $1 AND name = $2`, group, name)
	if err != nil {
		return s.fail(ctx, "delete", name, err)
	}
	return checkRowsAffected(result, store.ErrScheduleNotFound)
}

// List implements store.ScheduleStore.List.
func (s *PostgresScheduleStore) List(ctx context.Context, group string) ([]*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE group_name = $1 ORDER BY fire_at, name`
	return s.query(ctx, "list", query, group)
}

// ClaimDue implements store.ScheduleStore.ClaimDue. Due one-shot entries are
// deleted and returned; due entries that outlive firing are marked fired so
// they are claimed only once. Rows locked by a concurrent claimer are skipped.
func (s *PostgresScheduleStore) ClaimDue(
	ctx context.Context,
	group string,
	now time.Time,
	limit int,
) ([]*domain.Schedule, error) {
	query := `
		WITH due AS (
			SELECT group_name, name FROM schedules
			WHERE group_name = $1 AND fire_at <= $2 AND fired_at IS NULL
			ORDER BY fire_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		),
		consumed AS (
			DELETE FROM schedules s USING due
			WHERE s.group_name = due.group_name AND s.name = due.name
				AND s.action_after_completion = 'DELETE'
			RETURNING s.group_name, s.name, s.fire_at, s.target, s.payload, s.action_after_completion,
				s.flexible_window, s.fired_at, s.created_at, s.updated_at
		),
		marked AS (
			UPDATE schedules s SET fired_at = $2 FROM due
			WHERE s.group_name = due.group_name AND s.name = due.name
				AND s.action_after_completion = 'NONE'
			RETURNING s.group_name, s.name, s.fire_at, s.target, s.payload, s.action_after_completion,
				s.flexible_window, s.fired_at, s.created_at, s.updated_at
		)
		SELECT * FROM consumed
		UNION ALL
		SELECT * FROM marked
		ORDER BY fire_at
	`
	return s.query(ctx, "claim_due", query, group, now.UTC(), limit)
}

func (s *PostgresScheduleStore) query(ctx context.Context, op, query string, args ...any) ([]*domain.Schedule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("schedule query failed", slog.String("operation", op), slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	schedules := []*domain.Schedule{}
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			log.Error("failed to scan schedule row", slog.String("error", redact.Error(err)))
			return nil, MapError(err)
		}
		schedules = append(schedules, sched)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating schedule rows", slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}
	return schedules, nil
}

func (s *PostgresScheduleStore) fail(ctx context.Context, op, name string, err error) error {
	mapped := mapEntityError(err, store.ErrScheduleNotFound, store.ErrScheduleExists)
	log := logger.FromContextOrDefault(ctx, s.logger)
	switch {
	case store.IsNotFoundError(mapped), store.IsDuplicateError(mapped):
		log.Debug("schedule operation conflict",
			slog.String("operation", op),
			slog.String("schedule", name),
			slog.String("error", mapped.Error()))
	default:
		log.Error("schedule store operation failed",
			slog.String("operation", op),
			slog.String("schedule", name),
			slog.String("error", redact.Error(err)))
	}
	return mapped
}

func scanSchedule(row rowScanner) (*domain.Schedule, error) {
	var (
		sched   domain.Schedule
		action  string
		payload []byte
		firedAt sql.NullTime
	)
	if err := row.Scan(
		&sched.Group,
		&sched.Name,
		&sched.FireAt,
		&sched.Target,
		&payload,
		&action,
		&sched.FlexibleWindow,
		&firedAt,
		&sched.CreatedAt,
		&sched.UpdatedAt,
	); err != nil {
		return nil, err
	}
	sched.FireAt = sched.FireAt.UTC()
	sched.Payload = payload
	sched.ActionAfterCompletion = domain.ActionAfterCompletion(action)
	if firedAt.Valid {
		t := firedAt.Time.UTC()
		sched.FiredAt = &t
	}
	return &sched, nil
}

func payloadOrEmpty(p []byte) string {
	if len(p) == 0 {
		return "{}"
	}
	return string(p)
}

func flexibleWindow(w string) string {
	if w == "" {
		return domain.FlexibleWindowOff
	}
	return w
}
