package apperr

import "errors"

var (
	// ErrNotFound is returned when content is absent, not owned by the caller,
	// or in the wrong state for the requested command.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for malformed command input. Never queued.
	ErrValidation = errors.New("invalid argument")
	// ErrConflict is returned when a command is a no-op given current state,
	// e.g. retrying a stage that already succeeded.
	ErrConflict = errors.New("conflict")
	// ErrWindowExpired is returned when an undo arrives past the undo window.
	ErrWindowExpired = errors.New("undo window expired")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
)
