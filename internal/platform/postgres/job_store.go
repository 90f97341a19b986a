package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/redact"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// PostgresJobStore implements store.JobStore on the jobs table.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgresJobStore.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		// ALLOW-PANIC: a store without a database is a wiring error
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

var _ store.JobStore = (*PostgresJobStore)(nil)

// WithTx implements store.JobStore.WithTx.
func (s *PostgresJobStore) WithTx(tx *sql.Tx) store.JobStore {
	return &PostgresJobStore{db: tx, logger: s.logger}
}

// SaveJob persists a job to the database
func (s *PostgresJobStore) SaveJob(ctx context.Context, job store.JobRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, payload, status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		job.ID,
		job.Type,
		payloadOrEmpty(job.Payload),
		string(job.Status),
		nullString(job.ErrorMessage),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save job",
			"job_id", job.ID,
			"job_type", job.Type,
			"error", redact.Error(err))
		return fmt.Errorf("failed to save job: %w", MapError(err))
	}
	return nil
}

// UpdateJobStatus updates the status of a job in the database
func (s *PostgresJobStore) UpdateJobStatus(
	ctx context.Context,
	id uuid.UUID,
	status store.JobStatus,
	errorMessage string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`, string(status), nullString(errorMessage), time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update job status",
			"job_id", id,
			"status", status,
			"error", redact.Error(err))
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return checkRowsAffected(result, store.ErrJobNotFound)
}

// GetPendingJobs retrieves pending and processing jobs, oldest first.
func (s *PostgresJobStore) GetPendingJobs(ctx context.Context) ([]store.JobRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, payload, status, error_message, created_at, updated_at
		FROM jobs
		WHERE status IN ('pending', 'processing')
		ORDER BY created_at ASC
	`)
	if err != nil {
		log.Error("failed to query pending jobs", "error", redact.Error(err))
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []store.JobRecord
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			log.Error("failed to scan job row", "error", redact.Error(err))
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}
	return jobs, nil
}

// GetJobByID implements store.JobStore.GetJobByID.
func (s *PostgresJobStore) GetJobByID(ctx context.Context, id uuid.UUID) (store.JobRecord, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx, `
		SELECT id, type, payload, status, error_message, created_at, updated_at
		FROM jobs WHERE id = $1
	`, id))
	if err != nil {
		return store.JobRecord{}, mapEntityError(err, store.ErrJobNotFound, store.ErrDuplicate)
	}
	return job, nil
}

// ResetStuckJobs implements store.JobStore.ResetStuckJobs.
func (s *PostgresJobStore) ResetStuckJobs(ctx context.Context, olderThan time.Duration) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'pending', updated_at = $1
		WHERE status = 'processing' AND updated_at < $2
	`, now, now.Add(-olderThan))
	if err != nil {
		log.Error("failed to reset stuck jobs", "error", redact.Error(err))
		return 0, fmt.Errorf("failed to reset stuck jobs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		log.Warn("reset stuck jobs", "count", n, "older_than", olderThan.String())
	}
	return int(n), nil
}

func scanJob(row rowScanner) (store.JobRecord, error) {
	var (
		job     store.JobRecord
		status  string
		payload []byte
		errMsg  sql.NullString
	)
	if err := row.Scan(
		&job.ID,
		&job.Type,
		&payload,
		&status,
		&errMsg,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return store.JobRecord{}, err
	}
	job.Payload = payload
	job.Status = store.JobStatus(status)
	job.ErrorMessage = errMsg.String
	return job, nil
}
