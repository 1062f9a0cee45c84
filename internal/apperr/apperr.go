// Package apperr classifies domain failures so the HTTP layer can map them
// to status codes without string matching.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFound reports that the named entity does not exist.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s: %w: %s", entity, ErrNotFound, id)
}

// Invalid reports a malformed or missing field.
func Invalid(entity, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", entity, ErrInvalid, fmt.Sprintf(format, args...))
}

// Conflict reports a request that clashes with current state.
func Conflict(entity, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", entity, ErrConflict, fmt.Sprintf(format, args...))
}

// Unauthorized reports a missing or rejected credential.
func Unauthorized(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}
