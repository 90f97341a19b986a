package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/phrazzld/todo-reminders/internal/redact"
)

// ErrNoSubscribers is returned by Publish when the topic has nobody to deliver to.
var ErrNoSubscribers = errors.New("topic has no subscribers")

// Message is a single notification.
type Message struct {
	Subject string
	Body    string
}

// Dispatcher publishes messages to a fixed channel.
type Dispatcher interface {
	Publish(ctx context.Context, msg Message) error
}

// Subscriber receives every message published on a topic.
type Subscriber interface {
	Name() string
	Deliver(ctx context.Context, channel string, msg Message) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc struct {
	ID string
	Fn func(ctx context.Context, channel string, msg Message) error
}

// Name implements Subscriber.
func (f SubscriberFunc) Name() string { return f.ID }

// Deliver implements Subscriber.
func (f SubscriberFunc) Deliver(ctx context.Context, channel string, msg Message) error {
	return f.Fn(ctx, channel, msg)
}

// Topic is an in-memory Dispatcher for one named channel.
type Topic struct {
	channel     string
	mu          sync.RWMutex
	subscribers []Subscriber
	logger      *slog.Logger
}

var _ Dispatcher = (*Topic)(nil)

// NewTopic creates an empty topic for channel.
func NewTopic(channel string, logger *slog.Logger) *Topic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Topic{
		channel: channel,
		logger:  logger.With("component", "notify_topic", "channel", channel),
	}
}

// Channel returns the topic's channel name.
func (t *Topic) Channel() string { return t.channel }

// Subscribe adds a subscriber.
func (t *Topic) Subscribe(s Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, s)
	t.logger.Debug("subscriber added", "subscriber", s.Name(), "subscriber_count", len(t.subscribers))
}

// Publish delivers msg to every subscriber. Every subscriber is attempted;
// the first delivery error is returned.
func (t *Topic) Publish(ctx context.Context, msg Message) error {
	t.mu.RLock()
	subscribers := make([]Subscriber, len(t.subscribers))
	copy(subscribers, t.subscribers)
	t.mu.RUnlock()

	if len(subscribers) == 0 {
		t.logger.Warn("no subscribers for message", "subject", msg.Subject)
		return ErrNoSubscribers
	}

	var firstErr error
	for _, s := range subscribers {
		if err := s.Deliver(ctx, t.channel, msg); err != nil {
			t.logger.Error("subscriber failed to deliver message",
				"subscriber", s.Name(),
				"subject", msg.Subject,
				"error", redact.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr == nil {
		t.logger.Info("message published", "subject", msg.Subject, "subscriber_count", len(subscribers))
	}
	return firstErr
}
