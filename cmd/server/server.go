package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/phrazzld/todo-reminders/internal/app"
)

// serve starts the job runner, the schedule poller and the HTTP server, and
// shuts all of them down when ctx is cancelled or the server fails.
func serve(ctx context.Context, a *app.Application) error {
	defer a.Close()

	if err := a.Runner.Start(); err != nil {
		return fmt.Errorf("failed to start job runner: %w", err)
	}
	defer a.Runner.Stop()

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	var pollerDone sync.WaitGroup
	pollerDone.Add(1)
	go func() {
		defer pollerDone.Done()
		a.Poller.Run(serverCtx)
	}()
	defer pollerDone.Wait()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.Logger.Info("starting server", "port", a.Config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("server failed", "error", err)
			serverErr <- err
			cancelServer()
		}
	}()

	<-serverCtx.Done()
	a.Logger.Info("shutting down server")

	timeout := time.Duration(a.Config.Server.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	default:
	}
	a.Logger.Info("server shutdown completed")
	return nil
}
