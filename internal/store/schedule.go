package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/phrazzld/todo-reminders/internal/domain"
)

// ScheduleStore defines the persistence contract of the schedule registry.
// Entries are keyed by (group, name). Every operation distinguishes a missing
// entry (ErrScheduleNotFound) from any other failure.
type ScheduleStore interface {
	// Get returns the entry with the given name.
	// Returns ErrScheduleNotFound if no such entry exists.
	Get(ctx context.Context, group, name string) (*domain.Schedule, error)

	// Create inserts a new entry.
	// Returns ErrScheduleExists if an entry with that name already exists.
	Create(ctx context.Context, schedule *domain.Schedule) error

	// Update replaces every field of an existing entry.
	// Returns ErrScheduleNotFound if the entry does not exist.
	Update(ctx context.Context, schedule *domain.Schedule) error

	// Delete removes an entry.
	// Returns ErrScheduleNotFound if the entry does not exist.
	Delete(ctx context.Context, group, name string) error

	// List returns the entries of a group ordered by fire time.
	List(ctx context.Context, group string) ([]*domain.Schedule, error)

	// ClaimDue returns up to limit entries of group whose fire time is at or
	// before now. One-shot entries are removed by the same statement, so each
	// is returned to exactly one caller.
	ClaimDue(ctx context.Context, group string, now time.Time, limit int) ([]*domain.Schedule, error)

	// WithTx returns a new ScheduleStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ScheduleStore
}
