package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownTarget is returned when an entry names a target nobody registered.
var ErrUnknownTarget = errors.New("unknown schedule target")

// TargetFunc receives the payload of a fired entry.
type TargetFunc func(ctx context.Context, payload []byte) error

// Targets maps target names to the actions they invoke.
type Targets struct {
	mu      sync.RWMutex
	targets map[string]TargetFunc
}

// NewTargets creates an empty target table.
func NewTargets() *Targets {
	return &Targets{targets: make(map[string]TargetFunc)}
}

// Register binds name to fn.
func (t *Targets) Register(name string, fn TargetFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.targets[name] = fn
}

// Invoke calls the target called name with payload.
func (t *Targets) Invoke(ctx context.Context, name string, payload []byte) error {
	t.mu.RLock()
	fn, ok := t.targets[name]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	return fn(ctx, payload)
}

// Names lists the registered target names in order.
func (t *Targets) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.targets))
	for name := range t.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
