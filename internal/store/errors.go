package store

import "errors"

// Sentinel errors returned by the store and the domain services built on it.
// Callers wrap them with fmt.Errorf("%w: ...") and apierr maps them to HTTP
// status codes.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
)
