package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMinLeadTime is how far ahead of the request a reminder must be.
	DefaultMinLeadTime = time.Minute

	// MaxReminderNoteLength bounds the free-text reminder body.
	MaxReminderNoteLength = 1000

	// ScheduleHandlePrefix starts every derived schedule handle.
	ScheduleHandlePrefix = "task-reminder-"

	// scheduleHandleHashLen is the number of hex characters of the digest kept.
	scheduleHandleHashLen = 32

	// zonelessLayout is accepted for reminder times without an offset; they are read as UTC.
	zonelessLayout = "2006-01-02T15:04:05"
)

// ReminderState is the reminder sub-state of a task.
// ScheduleHandle is non-empty exactly when Active is true.
type ReminderState struct {
	Time           *time.Time `json:"reminder_time,omitempty"`
	Recipient      string     `json:"reminder_recipient,omitempty"`
	Note           string     `json:"reminder_note,omitempty"`
	Active         bool       `json:"reminder_active"`
	ScheduleHandle string     `json:"schedule_handle,omitempty"`
}

// Validate enforces the handle/active pairing and recipient presence.
func (r ReminderState) Validate() error {
	if r.Active != (r.ScheduleHandle != "") {
		return fmt.Errorf("%w: schedule handle must be present iff reminder is active", ErrValidation)
	}
	if r.Time != nil && strings.TrimSpace(r.Recipient) == "" {
		return ErrEmptyRecipient
	}
	return nil
}

// IsZero reports whether no reminder field is set.
func (r ReminderState) IsZero() bool {
	return r.Time == nil && r.Recipient == "" && r.Note == "" && !r.Active && r.ScheduleHandle == ""
}

// ParseReminderTime parses an ISO-8601 instant. Values without a zone offset
// are interpreted as UTC. The result is in UTC.
func ParseReminderTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidReminderTime
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(zonelessLayout, value, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidReminderTime
}

// ValidateReminderTime requires at to be strictly later than now+lead.
func ValidateReminderTime(at, now time.Time, lead time.Duration) error {
	if !at.After(now.Add(lead)) {
		return ErrReminderTooSoon
	}
	return nil
}

// DefaultReminderNote is the note used when the caller supplies none.
func DefaultReminderNote(taskID uuid.UUID) string {
	return fmt.Sprintf("Reminder for your task: %s", taskID)
}

// ScheduleHandleFor derives the registry entry name bound to a task's reminder.
// The name is stable for a given (ownerID, taskID) pair, fixed width, and
// derived from a digest of the full pair so distinct tasks never share a name
// through truncation.
func ScheduleHandleFor(ownerID string, taskID uuid.UUID) string {
	sum := sha256.Sum256([]byte(ownerID + "\x00" + taskID.String()))
	return ScheduleHandlePrefix + hex.EncodeToString(sum[:])[:scheduleHandleHashLen]
}

// ReminderPayload is the body a schedule entry delivers to the notification
// dispatch handler when it fires.
type ReminderPayload struct {
	OwnerID   string `json:"userId"`
	TaskID    string `json:"taskId"`
	Recipient string `json:"reminderEmail"`
	Note      string `json:"reminderMessage"`
}

// Validate requires the fields a notification cannot be sent without.
func (p ReminderPayload) Validate() error {
	if strings.TrimSpace(p.Recipient) == "" {
		return ErrEmptyRecipient
	}
	if strings.TrimSpace(p.TaskID) == "" {
		return ErrEmptyTaskID
	}
	return nil
}
