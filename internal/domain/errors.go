package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict indicates the stored version advanced since the entity was read.
	ErrConflict = errors.New("version conflict")
	// ErrInvalidRequest indicates the caller supplied an unusable combination of arguments.
	ErrInvalidRequest = errors.New("invalid request")
)
