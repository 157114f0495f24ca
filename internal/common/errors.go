// Package common defines shared constants and sentinel errors used across
// client and server layers of profilekeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Local persistence I/O failure. Fatal to the current operation,
	// not to the process.
	ErrStorage = errors.New("storage failure")

	// Validation errors.
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidArgument = errors.New("invalid argument")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
