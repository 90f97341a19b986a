package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// ErrUnknownType is returned when no builder is registered for a job type.
var ErrUnknownType = errors.New("unknown job type")

// Job is a unit of background work.
type Job interface {
	ID() uuid.UUID
	Type() string
	Payload() []byte
	Execute(ctx context.Context) error
}

// ExecFunc runs a job with its decoded payload bytes.
type ExecFunc func(ctx context.Context, payload []byte) error

// funcJob is a Job backed by an ExecFunc.
type funcJob struct {
	id      uuid.UUID
	typ     string
	payload []byte
	exec    ExecFunc
}

func (j *funcJob) ID() uuid.UUID { return j.id }

func (j *funcJob) Type() string { return j.typ }

func (j *funcJob) Payload() []byte { return j.payload }

func (j *funcJob) Execute(ctx context.Context) error { return j.exec(ctx, j.payload) }

// New creates a job of type typ whose payload is v encoded as JSON.
func New(typ string, v any, exec ExecFunc) (Job, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return &funcJob{id: uuid.New(), typ: typ, payload: payload, exec: exec}, nil
}

// Registry maps job types to the function that executes them. It is the
// factory used to rebuild jobs loaded from the store.
type Registry struct {
	mu    sync.RWMutex
	execs map[string]ExecFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{execs: make(map[string]ExecFunc)}
}

// Register binds typ to exec, replacing any earlier binding.
func (r *Registry) Register(typ string, exec ExecFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execs[typ] = exec
}

// New creates a fresh job of a registered type.
func (r *Registry) New(typ string, v any) (Job, error) {
	exec, ok := r.lookup(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	return New(typ, v, exec)
}

// Rebuild turns a stored record back into an executable job.
func (r *Registry) Rebuild(rec store.JobRecord) (Job, error) {
	exec, ok := r.lookup(rec.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, rec.Type)
	}
	return &funcJob{id: rec.ID, typ: rec.Type, payload: rec.Payload, exec: exec}, nil
}

func (r *Registry) lookup(typ string) (ExecFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.execs[typ]
	return exec, ok
}
