package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/todo-reminders/internal/api"
	"github.com/phrazzld/todo-reminders/internal/config"
	"github.com/phrazzld/todo-reminders/internal/job"
	"github.com/phrazzld/todo-reminders/internal/notify"
	"github.com/phrazzld/todo-reminders/internal/platform/postgres"
	"github.com/phrazzld/todo-reminders/internal/reminder"
	"github.com/phrazzld/todo-reminders/internal/scheduler"
	"github.com/phrazzld/todo-reminders/internal/service"
	"github.com/phrazzld/todo-reminders/internal/service/auth"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// jwksClientTimeout bounds a single JWKS fetch.
const jwksClientTimeout = 10 * time.Second

// Application holds the shared dependencies of the service.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB

	// Stores
	TaskStore     store.TaskStore
	ScheduleStore store.ScheduleStore
	JobStore      store.JobStore

	// Reminder scheduling
	Registry    *scheduler.Registry
	Targets     *scheduler.Targets
	Coordinator *reminder.Coordinator
	Dispatch    *reminder.DispatchHandler
	Topic       *notify.Topic

	// Background work
	Runner *job.Runner
	Poller *scheduler.Poller

	// Service interfaces
	TaskService service.TaskService
	Verifier    auth.TokenVerifier
}

// New wires every component from cfg over db. Nothing is started; callers
// start the job runner and the poller as they need.
func New(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if db == nil {
		return nil, errors.New("database cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		TaskStore:     postgres.NewPostgresTaskStore(db, logger),
		ScheduleStore: postgres.NewPostgresScheduleStore(db, logger),
		JobStore:      postgres.NewPostgresJobStore(db, logger),
	}

	var err error
	a.Topic, err = NewTopic(cfg.Notify, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up notifications: %w", err)
	}

	a.Dispatch, err = reminder.NewDispatchHandler(a.Topic, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch handler: %w", err)
	}
	a.Targets = scheduler.NewTargets()
	a.Targets.Register(cfg.Scheduler.NotificationTarget, a.Dispatch.Handle)

	a.Registry = scheduler.NewRegistry(a.ScheduleStore, cfg.Scheduler.Group)
	a.Coordinator, err = reminder.NewCoordinator(a.TaskStore, a.Registry, reminder.Config{
		Target:      cfg.Scheduler.NotificationTarget,
		MinLeadTime: time.Duration(cfg.Reminder.MinLeadSeconds) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder coordinator: %w", err)
	}

	a.TaskService, err = service.NewTaskService(a.TaskStore, a.Coordinator, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	jobs := job.NewRegistry()
	a.Runner = job.NewRunner(a.JobStore, jobs, job.RunnerConfig{
		WorkerCount:           cfg.Jobs.WorkerCount,
		QueueSize:             cfg.Jobs.QueueSize,
		JobTimeout:            30 * time.Second,
		StuckJobAge:           time.Duration(cfg.Jobs.StuckJobAgeMinutes) * time.Minute,
		StuckJobCheckInterval: 5 * time.Minute,
	}, logger)
	a.Poller = scheduler.NewPoller(scheduler.PollerDeps{
		DB:        db,
		Schedules: a.ScheduleStore,
		Jobs:      a.JobStore,
		Registry:  jobs,
		Queue:     a.Runner,
		Targets:   a.Targets,
	}, scheduler.PollerConfig{
		Group:     cfg.Scheduler.Group,
		Interval:  time.Duration(cfg.Scheduler.PollIntervalSeconds) * time.Second,
		BatchSize: cfg.Scheduler.BatchSize,
	}, logger)

	a.Verifier, err = auth.NewVerifier(cfg.Auth, &http.Client{Timeout: jwksClientTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}
	logger.Info("token verifier initialized", "mode", cfg.Auth.Mode)

	return a, nil
}

// Router returns the HTTP handler serving the task and reminder API.
func (a *Application) Router() http.Handler {
	handler := api.NewTaskHandler(a.TaskService, a.Coordinator, a.Logger)
	return api.NewRouter(handler, a.Verifier, a.Logger)
}

// Close releases the database connection.
func (a *Application) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("error closing database connection", "error", err)
		}
	}
}

// NewTopic builds the notification topic for cfg.Channel. Every message is
// logged; it is also emailed when an SMTP server is configured.
func NewTopic(cfg config.NotifyConfig, logger *slog.Logger) (*notify.Topic, error) {
	topic := notify.NewTopic(cfg.Channel, logger)
	topic.Subscribe(notify.NewLogSubscriber(logger))

	if cfg.SMTPAddr == "" {
		logger.Info("smtp not configured, notifications are only logged", "channel", cfg.Channel)
		return topic, nil
	}

	smtpSub, err := notify.NewSMTPSubscriber(notify.SMTPConfig{
		Addr:     cfg.SMTPAddr,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		To:       cfg.Subscribers,
	}, nil)
	if err != nil {
		return nil, err
	}
	topic.Subscribe(smtpSub)
	return topic, nil
}
