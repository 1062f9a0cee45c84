package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestConstructors_Classify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   error
		msg  string
	}{
		{"not found", NotFound("sprint", "s-1"), ErrNotFound, "sprint: not found: s-1"},
		{"invalid", Invalid("issue", "title is required"), ErrInvalid, "issue: invalid: title is required"},
		{"conflict", Conflict("sprint", "sprint %s is already completed", "s-1"), ErrConflict, "sprint: conflict: sprint s-1 is already completed"},
		{"unauthorized", Unauthorized("invalid credentials"), ErrUnauthorized, "unauthorized: invalid credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.is) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.is)
			}
			if tt.err.Error() != tt.msg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.msg)
			}
		})
	}
}

func TestWrapped_StillClassified(t *testing.T) {
	err := fmt.Errorf("complete sprint: %w", NotFound("sprint", "x"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapped error lost ErrNotFound classification")
	}
	if errors.Is(err, ErrConflict) {
		t.Error("wrapped not-found error should not match ErrConflict")
	}
}
