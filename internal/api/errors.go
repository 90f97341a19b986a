package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/todo-reminders/internal/api/shared"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/reminder"
	"github.com/phrazzld/todo-reminders/internal/service"
	"github.com/phrazzld/todo-reminders/internal/service/auth"
	"github.com/phrazzld/todo-reminders/internal/store"
)

const genericErrorMessage = "An unexpected error occurred"

// userFacingValidation lists validation errors whose text is safe to return.
var userFacingValidation = []error{
	service.ErrEmptyUpdate,
	domain.ErrEmptyTaskText,
	domain.ErrTaskTextLength,
	domain.ErrInvalidTaskID,
	domain.ErrEmptyTaskID,
	domain.ErrInvalidReminderTime,
	domain.ErrReminderTooSoon,
	domain.ErrEmptyRecipient,
	domain.ErrReminderNoteLength,
}

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	if err == nil {
		return http.StatusInternalServerError
	}

	var reminderErr *reminder.Error
	if errors.As(err, &reminderErr) {
		switch reminderErr.Kind {
		case reminder.KindValidation:
			return http.StatusBadRequest
		case reminder.KindNotFound:
			return http.StatusNotFound
		case reminder.KindDependency, reminder.KindCompensation:
			return http.StatusBadGateway
		}
	}

	var validationErrs validator.ValidationErrors
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrKeysUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, shared.ErrEmptyBody),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return genericErrorMessage
	}

	var reminderErr *reminder.Error
	if errors.As(err, &reminderErr) {
		switch reminderErr.Kind {
		case reminder.KindDependency:
			return dependencyMessage(reminderErr.Step)
		case reminder.KindCompensation:
			return "Reminder could not be saved"
		}
	}

	for _, known := range userFacingValidation {
		if errors.Is(err, known) {
			return capitalize(known.Error())
		}
	}

	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, auth.ErrKeysUnavailable):
		return "Authentication service unavailable"

	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Validation error"

	default:
		return genericErrorMessage
	}
}

// dependencyMessage names the failed step of a reminder operation without
// exposing the underlying error.
func dependencyMessage(step reminder.Step) string {
	switch step {
	case reminder.StepRegistryProbe:
		return "Reminder scheduler unavailable"
	case reminder.StepRegistryWrite:
		return "Reminder could not be scheduled"
	case reminder.StepTaskRead:
		return "Task could not be loaded"
	case reminder.StepTaskCommit:
		return "Task could not be saved"
	case reminder.StepTaskDelete:
		return "Task could not be deleted"
	default:
		return "Reminder service unavailable"
	}
}

// HandleAPIError writes the error response for err. defaultMsg replaces the
// generic message for errors that map to 500.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if message == genericErrorMessage && defaultMsg != "" {
		message = defaultMsg
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
