package reminder

import (
	"errors"
	"fmt"

	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// ErrorKind classifies a reminder failure.
type ErrorKind int

const (
	// KindNone means no failure.
	KindNone ErrorKind = iota
	// KindValidation is malformed or missing input. Never retried.
	KindValidation
	// KindNotFound means the referenced task does not exist.
	KindNotFound
	// KindDependency is a task store or registry failure other than "not found".
	KindDependency
	// KindCompensation means a rollback after a failed step itself failed.
	KindCompensation
)

// String returns the kind's name as used in logs.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDependency:
		return "dependency"
	case KindCompensation:
		return "compensation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Step names the part of an operation that failed.
type Step string

const (
	StepValidate      Step = "validate"
	StepTaskRead      Step = "task_read"
	StepRegistryProbe Step = "registry_probe"
	StepRegistryWrite Step = "registry_write"
	StepTaskCommit    Step = "task_commit"
	StepTaskDelete    Step = "task_delete"
	StepDecode        Step = "decode_payload"
	StepPublish       Step = "publish"
)

// ErrInvalidPayload is returned by the dispatch handler for payloads that
// cannot produce a notification.
var ErrInvalidPayload = errors.New("invalid reminder payload")

// Error is a classified reminder failure.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Op is the operation that failed (e.g., "set_reminder", "delete_task").
	Op string
	// Step is where in Op the failure happened. It may be empty.
	Step Step
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("reminder %s failed (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("reminder %s failed at %s (%s): %v", e.Op, e.Step, e.Kind, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err. A *Error reports its own kind; otherwise domain
// validation errors are KindValidation, store not-found errors are
// KindNotFound, and anything else is KindDependency.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, ErrInvalidPayload):
		return KindValidation
	case errors.Is(err, store.ErrNotFound):
		return KindNotFound
	default:
		return KindDependency
	}
}

// wrap classifies err and attaches op and step. It returns nil for a nil
// error and leaves an existing *Error untouched.
func wrap(op string, step Step, err error) error {
	if err == nil {
		return nil
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return err
	}
	return &Error{Kind: KindOf(err), Op: op, Step: step, Err: err}
}

// CleanupOutcome reports the result of a best-effort registry cleanup.
type CleanupOutcome struct {
	// Attempted is true when a registry call was made.
	Attempted bool
	// Succeeded is true when the entry is known to be gone.
	Succeeded bool
	// Kind classifies the failure when Attempted && !Succeeded.
	Kind ErrorKind
}

// Failed reports whether a cleanup was attempted and did not succeed.
func (o CleanupOutcome) Failed() bool {
	return o.Attempted && !o.Succeeded
}
