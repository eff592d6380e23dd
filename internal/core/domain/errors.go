package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrMalformedRecord indicates a source record cannot be normalized
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnknownSource indicates no normaliser is registered for a source kind
	ErrUnknownSource = errors.New("unknown source kind")

	// ErrPersistence indicates the handover store rejected a write
	ErrPersistence = errors.New("persistence failure")

	// ErrInvalidTransition indicates an edit state change that is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrServiceUnavailable indicates no upstream search service could be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)

// SaveError is returned when a handover save fails.
// It carries the draft that was being saved so callers can hand it back
// to the user untouched.
type SaveError struct {
	Key   HandoverKey
	Draft HandoverDraft
	Err   error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save handover %s/%s: %v", e.Key.UserID, e.Key.SolutionID, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Is reports every SaveError as a persistence failure.
func (e *SaveError) Is(target error) bool {
	return target == ErrPersistence
}

// UpstreamError describes a failed call to one of the search back-ends.
type UpstreamError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the request may succeed if sent again.
func (e *UpstreamError) Retryable() bool {
	switch e.StatusCode {
	case 0, 429, 502, 503, 504:
		return true
	}
	return false
}
