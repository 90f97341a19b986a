package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a persisted background job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// JobRecord is the persisted form of a background job.
type JobRecord struct {
	ID           uuid.UUID
	Type         string
	Payload      json.RawMessage
	Status       JobStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobStore defines the interface for background job persistence.
type JobStore interface {
	// SaveJob inserts a job record.
	SaveJob(ctx context.Context, job JobRecord) error

	// UpdateJobStatus sets a job's status and error message.
	// Returns ErrJobNotFound if the job does not exist.
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status JobStatus, errorMessage string) error

	// GetPendingJobs returns pending and processing jobs, oldest first.
	GetPendingJobs(ctx context.Context) ([]JobRecord, error)

	// GetJobByID returns a job record.
	// Returns ErrJobNotFound if the job does not exist.
	GetJobByID(ctx context.Context, id uuid.UUID) (JobRecord, error)

	// ResetStuckJobs moves processing jobs not updated within olderThan back
	// to pending and returns how many were reset.
	ResetStuckJobs(ctx context.Context, olderThan time.Duration) (int, error)

	// WithTx returns a new JobStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) JobStore
}
