package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some error"), false},
		{"ErrNotFound", ErrNotFound, true},
		{"task not found", ErrTaskNotFound, true},
		{"schedule not found", ErrScheduleNotFound, true},
		{"job not found", ErrJobNotFound, true},
		{"wrapped task not found", fmt.Errorf("get task: %w", ErrTaskNotFound), true},
		{"duplicate", ErrScheduleExists, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	assert.False(t, IsDuplicateError(nil))
	assert.True(t, IsDuplicateError(ErrDuplicate))
	assert.True(t, IsDuplicateError(fmt.Errorf("create: %w", ErrScheduleExists)))
	assert.False(t, IsDuplicateError(ErrScheduleNotFound))
}
