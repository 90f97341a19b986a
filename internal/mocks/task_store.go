package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// MockTaskStore implements store.TaskStore in memory.
type MockTaskStore struct {
	CreateFn        func(ctx context.Context, task *domain.Task) error
	GetFn           func(ctx context.Context, ownerID string, taskID uuid.UUID) (*domain.Task, error)
	UpdateFn        func(ctx context.Context, ownerID string, taskID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	SetReminderFn   func(ctx context.Context, ownerID string, taskID uuid.UUID, r domain.ReminderState) (*domain.Task, error)
	ClearReminderFn func(ctx context.Context, ownerID string, taskID uuid.UUID) (*domain.Task, error)
	DeleteFn        func(ctx context.Context, ownerID string, taskID uuid.UUID) error

	mu    sync.Mutex
	tasks map[string]*domain.Task
	// Writes counts successful or attempted mutations by method name.
	writes map[string]int
}

// NewMockTaskStore creates an empty store.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		tasks:  make(map[string]*domain.Task),
		writes: make(map[string]int),
	}
}

var _ store.TaskStore = (*MockTaskStore)(nil)

func taskKey(ownerID string, id uuid.UUID) string {
	return ownerID + "/" + id.String()
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.Reminder.Time != nil {
		at := *t.Reminder.Time
		c.Reminder.Time = &at
	}
	return &c
}

// Put inserts or replaces a task without counting a write.
func (m *MockTaskStore) Put(t *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[taskKey(t.OwnerID, t.ID)] = cloneTask(t)
}

// Snapshot returns a copy of the stored task, or nil.
func (m *MockTaskStore) Snapshot(ownerID string, id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[taskKey(ownerID, id)]; ok {
		return cloneTask(t)
	}
	return nil
}

// Writes returns how many times method was called to mutate the store.
func (m *MockTaskStore) Writes(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[method]
}

// TotalWrites returns the number of mutating calls across all methods.
func (m *MockTaskStore) TotalWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.writes {
		n += c
	}
	return n
}

func (m *MockTaskStore) count(method string) {
	m.mu.Lock()
	m.writes[method]++
	m.mu.Unlock()
}

// Create implements store.TaskStore.
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	m.count("Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := taskKey(task.OwnerID, task.ID)
	if _, ok := m.tasks[key]; ok {
		return store.ErrDuplicate
	}
	m.tasks[key] = cloneTask(task)
	return nil
}

// Get implements store.TaskStore.
func (m *MockTaskStore) Get(ctx context.Context, ownerID string, taskID uuid.UUID) (*domain.Task, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, ownerID, taskID)
	}
	if t := m.Snapshot(ownerID, taskID); t != nil {
		return t, nil
	}
	return nil, store.ErrTaskNotFound
}

// ListByOwner implements store.TaskStore.
func (m *MockTaskStore) ListByOwner(_ context.Context, ownerID string) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Task{}
	for key, t := range m.tasks {
		if strings.HasPrefix(key, ownerID+"/") {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Update implements store.TaskStore.
func (m *MockTaskStore) Update(
	ctx context.Context,
	ownerID string,
	taskID uuid.UUID,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	m.count("Update")
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, ownerID, taskID, patch)
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return m.mutate(ownerID, taskID, func(t *domain.Task) {
		if patch.Text != nil {
			t.Text = strings.TrimSpace(*patch.Text)
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
		if patch.ClearReminder {
			t.Reminder = domain.ReminderState{}
		}
	})
}

// SetReminder implements store.TaskStore.
func (m *MockTaskStore) SetReminder(
	ctx context.Context,
	ownerID string,
	taskID uuid.UUID,
	r domain.ReminderState,
) (*domain.Task, error) {
	m.count("SetReminder")
	if m.SetReminderFn != nil {
		return m.SetReminderFn(ctx, ownerID, taskID, r)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return m.mutate(ownerID, taskID, func(t *domain.Task) { t.Reminder = r })
}

// ClearReminder implements store.TaskStore.
func (m *MockTaskStore) ClearReminder(ctx context.Context, ownerID string, taskID uuid.UUID) (*domain.Task, error) {
	m.count("ClearReminder")
	if m.ClearReminderFn != nil {
		return m.ClearReminderFn(ctx, ownerID, taskID)
	}
	return m.mutate(ownerID, taskID, func(t *domain.Task) { t.Reminder = domain.ReminderState{} })
}

// Delete implements store.TaskStore.
func (m *MockTaskStore) Delete(ctx context.Context, ownerID string, taskID uuid.UUID) error {
	m.count("Delete")
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, ownerID, taskID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := taskKey(ownerID, taskID)
	if _, ok := m.tasks[key]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, key)
	return nil
}



func (m *MockTaskStore) mutate(ownerID string, taskID uuid.UUID, fn func(t *domain.Task)) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskKey(ownerID, taskID)]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	fn(t)
	t.UpdatedAt = time.Now().UTC()
	return cloneTask(t), nil
}
