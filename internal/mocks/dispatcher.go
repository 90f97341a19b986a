package mocks

import (
	"context"

	"github.com/phrazzld/todo-reminders/internal/notify"
	"github.com/stretchr/testify/mock"
)

// TestifyMockDispatcher is a testify/mock implementation of notify.Dispatcher.
type TestifyMockDispatcher struct {
	mock.Mock
}

var _ notify.Dispatcher = (*TestifyMockDispatcher)(nil)

// Publish implements notify.Dispatcher.
func (m *TestifyMockDispatcher) Publish(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
