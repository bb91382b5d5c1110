package repository

import "errors"

// ErrCorruptDocument is returned when a stored document cannot be decoded.
var ErrCorruptDocument = errors.New("corrupt document")
