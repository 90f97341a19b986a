package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// ScheduleCall records one call made to MockScheduleStore.
type ScheduleCall struct {
	Method string
	Name   string
}

// MockScheduleStore implements store.ScheduleStore in memory.
type MockScheduleStore struct {
	GetFn    func(ctx context.Context, group, name string) (*domain.Schedule, error)
	CreateFn func(ctx context.Context, s *domain.Schedule) error
	UpdateFn func(ctx context.Context, s *domain.Schedule) error
	DeleteFn func(ctx context.Context, group, name string) error

	mu        sync.Mutex
	schedules map[string]*domain.Schedule
	calls     []ScheduleCall
}

// NewMockScheduleStore creates an empty store.
func NewMockScheduleStore() *MockScheduleStore {
	return &MockScheduleStore{schedules: make(map[string]*domain.Schedule)}
}

var _ store.ScheduleStore = (*MockScheduleStore)(nil)

func scheduleKey(group, name string) string { return group + "/" + name }

func cloneSchedule(s *domain.Schedule) *domain.Schedule {
	c := *s
	c.Payload = append([]byte(nil), s.Payload...)
	return &c
}

func (m *MockScheduleStore) record(method, name string) {
	m.mu.Lock()
	m.calls = append(m.calls, ScheduleCall{Method: method, Name: name})
	m.mu.Unlock()
}

// Calls returns every recorded call in order.
func (m *MockScheduleStore) Calls() []ScheduleCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ScheduleCall(nil), m.calls...)
}

// CallCount returns how many times method was called.
func (m *MockScheduleStore) CallCount(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Put inserts an entry without recording a call.
func (m *MockScheduleStore) Put(s *domain.Schedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[scheduleKey(s.Group, s.Name)] = cloneSchedule(s)
}

// Entry returns a copy of the stored entry, or nil.
func (m *MockScheduleStore) Entry(group, name string) *domain.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.schedules[scheduleKey(group, name)]; ok {
		return cloneSchedule(s)
	}
	return nil
}

// Len returns the number of stored entries.
func (m *MockScheduleStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.schedules)
}

// Get implements store.ScheduleStore.
func (m *MockScheduleStore) Get(ctx context.Context, group, name string) (*domain.Schedule, error) {
	m.record("Get", name)
	if m.GetFn != nil {
		return m.GetFn(ctx, group, name)
	}
	if s := m.Entry(group, name); s != nil {
		return s, nil
	}
	return nil, store.ErrScheduleNotFound
}

// Create implements store.ScheduleStore.
func (m *MockScheduleStore) Create(ctx context.Context, s *domain.Schedule) error {
	m.record("Create", s.Name)
	if m.CreateFn != nil {
		return m.CreateFn(ctx, s)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := scheduleKey(s.Group, s.Name)
	if _, ok := m.schedules[key]; ok {
		return store.ErrScheduleExists
	}
	m.schedules[key] = cloneSchedule(s)
	return nil
}

// Update implements store.ScheduleStore.
func (m *MockScheduleStore) Update(ctx context.Context, s *domain.Schedule) error {
	m.record("Update", s.Name)
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, s)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := scheduleKey(s.Group, s.Name)
	if _, ok := m.schedules[key]; !ok {
		return store.ErrScheduleNotFound
	}
	c := cloneSchedule(s)
	c.FiredAt = nil
	m.schedules[key] = c
	return nil
}

// Delete implements store.ScheduleStore.
func (m *MockScheduleStore) Delete(ctx context.Context, group, name string) error {
	m.record("Delete", name)
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, group, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := scheduleKey(group, name)
	if _, ok := m.schedules[key]; !ok {
		return store.ErrScheduleNotFound
	}
	delete(m.schedules, key)
	return nil
}

// List implements store.ScheduleStore.
func (m *MockScheduleStore) List(_ context.Context, group string) ([]*domain.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Schedule{}
	for _, s := range m.schedules {
		if s.Group == group {
			out = append(out, cloneSchedule(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out, nil
}

// ClaimDue implements store.ScheduleStore.
func (m *MockScheduleStore) ClaimDue(_ context.Context, group string, now time.Time, limit int) ([]*domain.Schedule, error) {
	m.record("ClaimDue", group)
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*domain.Schedule
	for _, s := range m.schedules {
		if s.Group == group && s.FiredAt == nil && !s.FireAt.After(now) {
			due = append(due, s)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].FireAt.Before(due[j].FireAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*domain.Schedule, 0, len(due))
	for _, s := range due {
		key := scheduleKey(s.Group, s.Name)
		if s.OneShot() {
			delete(m.schedules, key)
		} else {
			fired := now
			s.FiredAt = &fired
		}
		claimed = append(claimed, cloneSchedule(s))
	}
	return claimed, nil
}

// WithTx implements store.ScheduleStore.
func (m *MockScheduleStore) WithTx(*sql.Tx) store.ScheduleStore { return m }
