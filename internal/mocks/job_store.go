package mocks

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// MockJobStore implements store.JobStore in memory.
type MockJobStore struct {
	// SaveErr, when set, is returned by every SaveJob call.
	SaveErr error

	mu      sync.Mutex
	records map[uuid.UUID]store.JobRecord
	order   []uuid.UUID
}

// NewMockJobStore creates an empty store.
func NewMockJobStore() *MockJobStore {
	return &MockJobStore{records: make(map[uuid.UUID]store.JobRecord)}
}

var _ store.JobStore = (*MockJobStore)(nil)

// SaveJob implements store.JobStore.
func (s *MockJobStore) SaveJob(_ context.Context, job store.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	s.records[job.ID] = job
	s.order = append(s.order, job.ID)
	return nil
}

// UpdateJobStatus implements store.JobStore.
func (s *MockJobStore) UpdateJobStatus(_ context.Context, id uuid.UUID, status store.JobStatus, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return store.ErrJobNotFound
	}
	rec.Status, rec.ErrorMessage, rec.UpdatedAt = status, msg, time.Now().UTC()
	s.records[id] = rec
	return nil
}

// GetPendingJobs implements store.JobStore.
func (s *MockJobStore) GetPendingJobs(context.Context) ([]store.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.JobRecord
	for _, id := range s.order {
		rec := s.records[id]
		if rec.Status == store.JobStatusPending || rec.Status == store.JobStatusProcessing {
			out = append(out, rec)
		}
	}
	return out, nil
}

// GetJobByID implements store.JobStore.
func (s *MockJobStore) GetJobByID(_ context.Context, id uuid.UUID) (store.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return store.JobRecord{}, store.ErrJobNotFound
	}
	return rec, nil
}

// ResetStuckJobs implements store.JobStore.
func (s *MockJobStore) ResetStuckJobs(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	cutoff := time.Now().UTC().Add(-olderThan)
	for id, rec := range s.records {
		if rec.Status == store.JobStatusProcessing && rec.UpdatedAt.Before(cutoff) {
			rec.Status = store.JobStatusPending
			s.records[id] = rec
			n++
		}
	}
	return n, nil
}

// WithTx implements store.JobStore.
func (s *MockJobStore) WithTx(*sql.Tx) store.JobStore { return s }

// Status returns the stored status of a job, or "" when it is unknown.
func (s *MockJobStore) Status(id uuid.UUID) store.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id].Status
}

// Records returns every stored record in insertion order.
func (s *MockJobStore) Records() []store.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.JobRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// Put inserts a record as-is, bypassing SaveJob.
func (s *MockJobStore) Put(rec store.JobRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
}
