package persistence

import "errors"

var (
	// ErrEntityNotFound is returned when an entity is not found in the repository.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("duplicate entity")
)
