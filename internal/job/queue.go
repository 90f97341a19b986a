package job

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Common errors returned by the Queue
var (
	ErrQueueClosed = errors.New("job queue is closed")
	ErrQueueFull   = errors.New("job queue is full")
)

// Queue is a bounded in-memory job queue that never blocks producers.
type Queue struct {
	mu     sync.Mutex
	jobs   chan Job
	closed bool
	logger *slog.Logger
}

// NewQueue creates a new queue with the specified buffer size.
func NewQueue(size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{jobs: make(chan Job, size), logger: logger}
}

// Enqueue adds a job to the queue.
// Returns ErrQueueClosed or ErrQueueFull when it cannot.
func (q *Queue) Enqueue(j Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- j:
		q.logger.Debug("job enqueued",
			"job_id", j.ID(),
			"job_type", j.Type(),
			"queue_len", len(q.jobs))
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(q.jobs))
	}
}

// Close stops further submission. Queued jobs can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
}

// C returns the receive side of the queue.
func (q *Queue) C() <-chan Job {
	return q.jobs
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Free returns how many more jobs fit before the queue is full.
func (q *Queue) Free() int {
	return cap(q.jobs) - len(q.jobs)
}
