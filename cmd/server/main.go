// Package main implements the entry point for the todo reminders API server,
// which serves task CRUD and per-task email reminders and runs the schedule
// poller that fires them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/phrazzld/todo-reminders/internal/app"
	"github.com/phrazzld/todo-reminders/internal/config"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/platform/postgres"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"Run a database migration command (up, down, reset, status, version) and exit")
	configPath := flag.String("config", "", "Path to a config file (defaults to ./config.yaml when present)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *migrateCmd); err != nil {
		log.Fatalf("todo-reminders: %v", err)
	}
}

// run loads configuration, connects to the database and either runs a
// migration command or serves until ctx is cancelled.
func run(ctx context.Context, configPath, migrateCmd string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"auth_mode", cfg.Auth.Mode,
		"scheduler_group", cfg.Scheduler.Group)

	db, err := app.OpenDatabase(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, l, migrateCmd)
	}

	application, err := app.New(cfg, l, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return serve(ctx, application)
}
