package services

import "fmt"

// Error taxonomy surfaced at the service boundary. Handlers translate these
// into HTTP statuses; anything untyped from the store or queue propagates as
// a generic failure with its side effects left in place.

type ValidationError struct {
  Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func NewValidationError(format string, args ...interface{}) *ValidationError {
  return &ValidationError{Err: fmt.Errorf(format, args...)}
}

type ConflictError struct {
  Err error
}

func (e *ConflictError) Error() string { return e.Err.Error() }
func (e *ConflictError) Unwrap() error { return e.Err }

type AuthenticationError struct {
  Err error
}

func (e *AuthenticationError) Error() string { return e.Err.Error() }
func (e *AuthenticationError) Unwrap() error { return e.Err }

// DownstreamError marks the inference backend as unreachable or unhealthy.
type DownstreamError struct {
  Err error
}

func (e *DownstreamError) Error() string { return e.Err.Error() }
func (e *DownstreamError) Unwrap() error { return e.Err }
