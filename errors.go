package filegate

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a resource belongs to another user
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a key is already registered
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when no user identity is present
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUpstream is returned when the object store or the database fails
	ErrUpstream = errors.New("upstream failure")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
