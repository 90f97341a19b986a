package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// MaxScheduleNameLength matches the registry's name limit.
const MaxScheduleNameLength = 64

// ActionAfterCompletion controls what the registry does with an entry after it fires.
type ActionAfterCompletion string

const (
	// ActionDelete removes the entry once it has fired.
	ActionDelete ActionAfterCompletion = "DELETE"
	// ActionNone keeps the entry after firing.
	ActionNone ActionAfterCompletion = "NONE"

	// FlexibleWindowOff fires an entry exactly at its time.
	FlexibleWindowOff = "OFF"
)

// Schedule is a named, time-triggered entry in the schedule registry.
// Entries fire at FireAt with no flexible window and invoke Target with Payload.
type Schedule struct {
	Name                  string                `json:"name"`
	Group                 string                `json:"group"`
	FireAt                time.Time             `json:"fire_at"`
	Target                string                `json:"target"`
	Payload               json.RawMessage       `json:"payload"`
	ActionAfterCompletion ActionAfterCompletion `json:"action_after_completion"`
	FlexibleWindow        string                `json:"flexible_window"`
	FiredAt               *time.Time            `json:"fired_at,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at"`
}

// NewOneShotSchedule builds an entry that fires once at fireAt (truncated to
// whole seconds, UTC) and deletes itself afterwards.
func NewOneShotSchedule(name, group string, fireAt time.Time, target string, payload json.RawMessage) (*Schedule, error) {
	now := time.Now().UTC()
	s := &Schedule{
		Name:                  name,
		Group:                 group,
		FireAt:                fireAt.UTC().Truncate(time.Second),
		Target:                target,
		Payload:               payload,
		ActionAfterCompletion: ActionDelete,
		FlexibleWindow:        FlexibleWindowOff,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks if the Schedule has valid data.
func (s *Schedule) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyScheduleName
	}
	if len(s.Name) > MaxScheduleNameLength {
		return ErrScheduleNameLength
	}
	if strings.TrimSpace(s.Target) == "" {
		return ErrEmptyTarget
	}
	switch s.ActionAfterCompletion {
	case ActionDelete, ActionNone:
	default:
		return ErrInvalidAction
	}
	return nil
}

// OneShot reports whether the entry is removed after firing.
func (s *Schedule) OneShot() bool {
	return s.ActionAfterCompletion == ActionDelete
}
