package domain

import "errors"

// Error kinds shared by every service. Service packages wrap one of these in
// their own sentinels, so callers can match either the specific error or the kind.
var (
	// ErrDuplicateKey indicates an entity with the same unique key already exists.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound indicates a lookup by key found nothing.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates malformed or unacceptable input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOutOfRange indicates a positional index outside the collection.
	ErrOutOfRange = errors.New("out of range")
	// ErrUnauthorized indicates the caller may not perform the operation.
	ErrUnauthorized = errors.New("unauthorized")
)
