// Package mocks provides centralized test doubles for the store, notify and
// auth interfaces.
//
// The Mock* types are in-memory implementations whose behaviour can be
// overridden per method through function fields and which record the calls
// they receive, so tests can assert both on resulting state and on which
// side effects were attempted:
//
//	tasks := mocks.NewMockTaskStore()
//	tasks.SetReminderFn = func(context.Context, string, uuid.UUID, domain.ReminderState) (*domain.Task, error) {
//	    return nil, errors.New("store unavailable")
//	}
//
// The TestifyMock* types are testify/mock implementations for tests that
// prefer expectation-style assertions.
package mocks
