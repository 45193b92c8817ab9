package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Pipeline errors
	ErrQueueFull        = errors.New("generation queue is full")
	ErrCircuitOpen      = errors.New("circuit breaker is open")
	ErrGeneratorTimeout = errors.New("generator call timed out")
	ErrRateLimited      = errors.New("too many requests")
)

// ValidationError marks a malformed generation request. It is never
// retried and never reaches the circuit breaker.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransientServiceError is a generator failure that may succeed on a
// later attempt: HTTP 429, HTTP >= 500, or a transport timeout.
type TransientServiceError struct {
	StatusCode int
	Err        error
}

func (e *TransientServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("generator transient failure (http %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generator transient failure: %v", e.Err)
}

func (e *TransientServiceError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed read or write against the plan store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsRetryable reports whether an error is worth another generator
// attempt. Retryability is a structural property of the error type,
// not a message heuristic.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var tse *TransientServiceError
	if errors.As(err, &tse) {
		return true
	}
	return errors.Is(err, ErrGeneratorTimeout)
}
