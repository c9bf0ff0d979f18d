package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateEmail indicates the email unique constraint was violated.
	ErrDuplicateEmail = errors.New("repository: email already registered")
)
