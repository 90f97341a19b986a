package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity or request fails validation.
	// Specific validation errors wrap it so callers can test with errors.Is.
	ErrValidation = errors.New("validation failed")

	ErrEmptyOwnerID   = validationError("owner ID cannot be empty")
	ErrEmptyTaskID    = validationError("task ID cannot be empty")
	ErrInvalidTaskID  = validationError("task ID has invalid format")
	ErrEmptyTaskText  = validationError("task text cannot be empty")
	ErrTaskTextLength = validationError("task text is too long")

	ErrInvalidReminderTime = validationError("invalid reminder time format")
	ErrReminderTooSoon     = validationError("reminder time must be at least the minimum lead time in the future")
	ErrEmptyRecipient      = validationError("reminder recipient cannot be empty")
	ErrReminderNoteLength  = validationError("reminder note is too long")

	ErrEmptyScheduleName  = validationError("schedule name cannot be empty")
	ErrScheduleNameLength = validationError("schedule name is too long")
	ErrEmptyTarget        = validationError("schedule target cannot be empty")
	ErrInvalidAction      = validationError("invalid action after completion")
)

type domainError struct {
	msg string
}

func (e *domainError) Error() string { return e.msg }

func (e *domainError) Unwrap() error { return ErrValidation }

func validationError(msg string) error {
	return &domainError{msg: msg}
}
