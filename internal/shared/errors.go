package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique-key collision.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidStatusTransition indicates a status change not allowed.
	ErrInvalidStatusTransition = errors.New("status transition invalid")
)
