package scheduler

import (
	"context"
	"fmt"

	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// Registry is the schedule registry client for a single group. Every method
// reports a missing entry as store.ErrScheduleNotFound.
type Registry struct {
	store store.ScheduleStore
	group string
}

// NewRegistry creates a Registry for group.
func NewRegistry(schedules store.ScheduleStore, group string) *Registry {
	return &Registry{store: schedules, group: group}
}

// Group returns the registry's group name.
func (r *Registry) Group() string { return r.group }

// Get returns the entry called name.
func (r *Registry) Get(ctx context.Context, name string) (*domain.Schedule, error) {
	return r.store.Get(ctx, r.group, name)
}

// Create adds an entry. The entry's group is forced to the registry's group.
func (r *Registry) Create(ctx context.Context, s *domain.Schedule) error {
	s.Group = r.group
	if err := r.store.Create(ctx, s); err != nil {
		return fmt.Errorf("create schedule %s: %w", s.Name, err)
	}
	return nil
}

// Update replaces an existing entry.
func (r *Registry) Update(ctx context.Context, s *domain.Schedule) error {
	s.Group = r.group
	if err := r.store.Update(ctx, s); err != nil {
		return fmt.Errorf("update schedule %s: %w", s.Name, err)
	}
	return nil
}

// Delete removes the entry called name.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if err := r.store.Delete(ctx, r.group, name); err != nil {
		return fmt.Errorf("delete schedule %s: %w", name, err)
	}
	return nil
}

// List returns every entry of the group ordered by fire time.
func (r *Registry) List(ctx context.Context) ([]*domain.Schedule, error) {
	return r.store.List(ctx, r.group)
}
