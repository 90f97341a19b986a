package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/job"
	"github.com/phrazzld/todo-reminders/internal/redact"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// FireJobType is the job type that invokes a fired entry's target.
const FireJobType = "schedule_fire"

// JobQueue is the in-memory side of the job runner. Jobs handed to Enqueue
// are already persisted.
type JobQueue interface {
	Enqueue(j job.Job) error
	Free() int
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Group     string
	Interval  time.Duration
	BatchSize int
}

// firePayload is the body of a schedule_fire job.
type firePayload struct {
	Group   string          `json:"group"`
	Name    string          `json:"name"`
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

// PollerDeps are the collaborators of a Poller.
type PollerDeps struct {
	// DB runs the claim and the fire-job inserts in one transaction.
	DB        *sql.DB
	Schedules store.ScheduleStore
	Jobs      store.JobStore
	Registry  *job.Registry
	Queue     JobQueue
	Targets   *Targets
}

// Poller claims due entries of one group and fires them.
type Poller struct {
	db        *sql.DB
	schedules store.ScheduleStore
	jobs      store.JobStore
	registry  *job.Registry
	queue     JobQueue
	config    PollerConfig
	now       func() time.Time
	logger    *slog.Logger
}

// NewPoller creates a Poller and registers the schedule_fire job type on
// deps.Registry, so fire jobs recovered after a restart still reach targets.
func NewPoller(deps PollerDeps, config PollerConfig, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	logger = logger.With("component", "schedule_poller", "group", config.Group)

	targets := deps.Targets
	deps.Registry.Register(FireJobType, func(ctx context.Context, raw []byte) error {
		var p firePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("decode fire payload: %w", err)
		}
		logger.InfoContext(ctx, "firing schedule", "schedule", p.Name, "target", p.Target)
		return targets.Invoke(ctx, p.Target, p.Payload)
	})

	return &Poller{
		db:        deps.DB,
		schedules: deps.Schedules,
		jobs:      deps.Jobs,
		registry:  deps.Registry,
		queue:     deps.Queue,
		config:    config,
		now:       time.Now,
		logger:    logger,
	}
}

type claimedJob struct {
	schedule *domain.Schedule
	job      job.Job
}

// FireOnce claims due entries and queues one fire job per entry, returning
// how many were queued. It never claims more entries than the job queue has
// room for. The claim and the pending job records commit together, so a
// claimed entry always has a persisted job. A job that still cannot be
// queued is marked failed and the entry does not fire.
func (p *Poller) FireOnce(ctx context.Context) (int, error) {
	limit := min(p.config.BatchSize, p.queue.Free())
	if limit <= 0 {
		p.logger.Debug("job queue full, skipping poll")
		return 0, nil
	}

	var claimed []claimedJob
	err := store.RunInTransaction(ctx, p.db, func(ctx context.Context, tx *sql.Tx) error {
		due, err := p.schedules.WithTx(tx).ClaimDue(ctx, p.config.Group, p.now().UTC(), limit)
		if err != nil {
			return fmt.Errorf("claim due schedules: %w", err)
		}

		jobs := p.jobs.WithTx(tx)
		claimed = make([]claimedJob, 0, len(due))
		for _, s := range due {
			j, err := p.registry.New(FireJobType, firePayload{
				Group:   s.Group,
				Name:    s.Name,
				Target:  s.Target,
				Payload: s.Payload,
			})
			if err != nil {
				return fmt.Errorf("build fire job for %q: %w", s.Name, err)
			}
			if err := jobs.SaveJob(ctx, store.JobRecord{
				ID:      j.ID(),
				Type:    j.Type(),
				Payload: j.Payload(),
				Status:  store.JobStatusPending,
			}); err != nil {
				return fmt.Errorf("save fire job for %q: %w", s.Name, err)
			}
			claimed = append(claimed, claimedJob{schedule: s, job: j})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, c := range claimed {
		if err := p.queue.Enqueue(c.job); err != nil {
			p.logger.Error("dropped claimed schedule",
				"schedule", c.schedule.Name,
				"target", c.schedule.Target,
				"job_id", c.job.ID(),
				"error", redact.Error(err))
			if uerr := p.jobs.UpdateJobStatus(ctx, c.job.ID(), store.JobStatusFailed,
				"not queued: "+redact.Error(err)); uerr != nil {
				p.logger.Error("failed to mark dropped fire job failed",
					"job_id", c.job.ID(),
					"error", redact.Error(uerr))
			}
			continue
		}
		queued++
	}

	if len(claimed) > 0 {
		p.logger.Info("claimed due schedules", "claimed", len(claimed), "queued", queued)
	}
	return queued, nil
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.logger.Info("schedule poller started", "interval", p.config.Interval.String())
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("schedule poller stopped")
			return
		case <-ticker.C:
			if _, err := p.FireOnce(ctx); err != nil {
				p.logger.Error("schedule poll failed", "error", redact.Error(err))
			}
		}
	}
}
