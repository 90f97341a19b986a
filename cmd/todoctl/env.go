package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/todo-reminders/internal/app"
	"github.com/phrazzld/todo-reminders/internal/config"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
)

// environment loads configuration and dependencies lazily so commands that
// need no database never open one.
type environment struct {
	configPath *string
}

func (e *environment) config() (*config.Config, error) {
	cfg, err := config.LoadFile(*e.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// logger writes JSON logs to w, normally the command's stderr.
func (e *environment) logger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	return logger.SetupWithWriter(cfg.Server, w)
}

// application opens the database and wires every component. The caller must
// Close the result.
func (e *environment) application(ctx context.Context, w io.Writer) (*app.Application, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	log, err := e.logger(cfg, w)
	if err != nil {
		return nil, err
	}
	db, err := app.OpenDatabase(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, log, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}
