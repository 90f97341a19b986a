package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/redact"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// RunnerConfig holds configuration for the job runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int

	// JobTimeout bounds a single execution. Zero means no bound.
	JobTimeout time.Duration

	// StuckJobAge defines how long a job can be in processing state
	// before it's considered stuck and reset
	StuckJobAge time.Duration

	// StuckJobCheckInterval defines how often to check for stuck jobs
	StuckJobCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:           2,
		QueueSize:             100,
		JobTimeout:            30 * time.Second,
		StuckJobAge:           30 * time.Minute,
		StuckJobCheckInterval: 5 * time.Minute,
	}
}

// Runner manages background job processing.
type Runner struct {
	store    store.JobStore
	registry *Registry
	queue    *Queue
	config   RunnerConfig
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	errHandler func(j Job, err error)
}

// NewRunner creates a new Runner. Jobs loaded from the store are rebuilt through registry.
func NewRunner(jobs store.JobStore, registry *Registry, config RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.StuckJobCheckInterval <= 0 {
		config.StuckJobCheckInterval = 5 * time.Minute
	}
	logger = logger.With("component", "job_runner")

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:    jobs,
		registry: registry,
		queue:    NewQueue(config.QueueSize, logger),
		config:   config,
		logger:   logger,
		inflight: make(map[uuid.UUID]struct{}),
		ctx:      ctx,
		cancel:   cancel,
		errHandler: func(j Job, err error) {
			logger.Error("job execution failed",
				"job_id", j.ID(),
				"job_type", j.Type(),
				"error", redact.Error(err))
		},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *Runner) SetErrorHandler(handler func(j Job, err error)) {
	r.errHandler = handler
}

// Registry returns the runner's job registry.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Submit persists j as pending, then queues it. A job that is persisted but
// cannot be queued stays pending and is picked up by the next recovery.
func (r *Runner) Submit(ctx context.Context, j Job) error {
	if err := r.store.SaveJob(ctx, store.JobRecord{
		ID:      j.ID(),
		Type:    j.Type(),
		Payload: j.Payload(),
		Status:  store.JobStatusPending,
	}); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return r.enqueue(j)
}

// Enqueue queues a job the caller has already persisted as pending, for
// example inside its own transaction.
func (r *Runner) Enqueue(j Job) error {
	return r.enqueue(j)
}

// Free returns how many more jobs can be queued right now.
func (r *Runner) Free() int {
	return r.queue.Free()
}

// Start recovers unfinished jobs and launches the workers and the stuck-job monitor.
func (r *Runner) Start() error {
	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.wg.Add(1)
	go r.stuckJobMonitor()
	return nil
}

// Stop cancels running work, waits for workers to exit and closes the queue.
func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
	r.queue.Close()
}

// Recover queues every pending or processing job found in the store. Jobs of
// unknown type are marked failed.
func (r *Runner) Recover(ctx context.Context) error {
	records, err := r.store.GetPendingJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending jobs: %w", err)
	}

	r.logger.Info("recovering unfinished jobs", "count", len(records))

	for _, rec := range records {
		j, err := r.registry.Rebuild(rec)
		if err != nil {
			r.logger.Error("cannot rebuild job", "job_id", rec.ID, "job_type", rec.Type, "error", err)
			if uerr := r.store.UpdateJobStatus(ctx, rec.ID, store.JobStatusFailed, err.Error()); uerr != nil {
				r.logger.Error("failed to mark unrecoverable job failed", "job_id", rec.ID, "error", uerr)
			}
			continue
		}
		if rec.Status == store.JobStatusProcessing {
			if err := r.store.UpdateJobStatus(ctx, rec.ID, store.JobStatusPending, "reset after recovery"); err != nil {
				r.logger.Error("failed to reset processing job", "job_id", rec.ID, "error", err)
				continue
			}
		}
		if err := r.enqueue(j); err != nil && !errors.Is(err, errAlreadyQueued) {
			r.logger.Error("failed to requeue job", "job_id", rec.ID, "job_type", rec.Type, "error", err)
		}
	}
	return nil
}

// RunPending executes every queued job on the calling goroutine and returns
// how many ran. It is meant for one-shot tools that do not start workers.
func (r *Runner) RunPending(ctx context.Context) int {
	n := 0
	for {
		select {
		case j, ok := <-r.queue.C():
			if !ok {
				return n
			}
			r.process(ctx, j, -1)
			n++
		default:
			return n
		}
	}
}

var errAlreadyQueued = errors.New("job already queued")

func (r *Runner) enqueue(j Job) error {
	r.mu.Lock()
	if _, ok := r.inflight[j.ID()]; ok {
		r.mu.Unlock()
		return errAlreadyQueued
	}
	r.inflight[j.ID()] = struct{}{}
	r.mu.Unlock()

	if err := r.queue.Enqueue(j); err != nil {
		r.done(j.ID())
		return err
	}
	return nil
}

func (r *Runner) done(id uuid.UUID) {
	r.mu.Lock()
	delete(r.inflight, id)
	r.mu.Unlock()
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()
	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return
		case j, ok := <-r.queue.C():
			if !ok {
				return
			}
			r.process(r.ctx, j, id)
		}
	}
}

func (r *Runner) process(ctx context.Context, j Job, workerID int) {
	defer r.done(j.ID())

	log := r.logger.With("job_id", j.ID(), "job_type", j.Type(), "worker_id", workerID)

	if err := r.store.UpdateJobStatus(ctx, j.ID(), store.JobStatusProcessing, ""); err != nil {
		log.Error("failed to mark job processing", "error", redact.Error(err))
		return
	}

	execCtx := ctx
	if r.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, r.config.JobTimeout)
		defer cancel()
	}

	err := r.execute(execCtx, j)
	if err != nil {
		if uerr := r.store.UpdateJobStatus(ctx, j.ID(), store.JobStatusFailed, redact.Error(err)); uerr != nil {
			log.Error("failed to mark job failed", "error", redact.Error(uerr))
		}
		r.errHandler(j, err)
		return
	}

	if uerr := r.store.UpdateJobStatus(ctx, j.ID(), store.JobStatusCompleted, ""); uerr != nil {
		log.Error("failed to mark job completed", "error", redact.Error(uerr))
	}
	log.Debug("job completed")
}

func (r *Runner) execute(ctx context.Context, j Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()
	return j.Execute(ctx)
}

func (r *Runner) stuckJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.resetStuck(r.ctx)
		}
	}
}

// resetStuck returns stale processing jobs to pending and requeues them.
func (r *Runner) resetStuck(ctx context.Context) {
	n, err := r.store.ResetStuckJobs(ctx, r.config.StuckJobAge)
	if err != nil {
		r.logger.Error("failed to reset stuck jobs", "error", redact.Error(err))
		return
	}
	if n == 0 {
		return
	}
	r.logger.Info("found stuck jobs", "count", n)
	if err := r.Recover(ctx); err != nil {
		r.logger.Error("failed to requeue stuck jobs", "error", redact.Error(err))
	}
}
