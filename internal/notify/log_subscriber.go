package notify

import (
	"context"
	"log/slog"
)

// LogSubscriber writes each message to a logger.
type LogSubscriber struct {
	logger *slog.Logger
}

// NewLogSubscriber creates a LogSubscriber.
func NewLogSubscriber(logger *slog.Logger) *LogSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSubscriber{logger: logger.With("component", "notify_log")}
}

// Name implements Subscriber.
func (s *LogSubscriber) Name() string { return "log" }

// Deliver implements Subscriber.
func (s *LogSubscriber) Deliver(ctx context.Context, channel string, msg Message) error {
	s.logger.InfoContext(ctx, "notification",
		"channel", channel,
		"subject", msg.Subject,
		"body", msg.Body)
	return nil
}
