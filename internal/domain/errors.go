package domain

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("authentication required")
	ErrUnauthorized    = errors.New("invalid credentials")
	ErrForbidden       = errors.New("invalid or expired token")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)
