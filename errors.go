package stowry

import "errors"

var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs.
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails. Every
	// verification failure in the sign package wraps this sentinel, so
	// callers that only care about pass/fail can test against it alone.
	ErrUnauthorized = errors.New("unauthorized")
)
