// Package common defines shared constants and the error taxonomy used across
// letterdesk components. Callers should use errors.Is / errors.As to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Geometry violations are programming errors: clamp and snap make every
	// interactive output valid by construction.
	ErrGeometryViolation = errors.New("geometry violation")

	// Zone store errors.
	ErrInvalidField   = errors.New("invalid field")
	ErrUnknownElement = errors.New("unknown element")
	ErrSaveInProgress = errors.New("save already in progress")
	ErrNoTemplate     = errors.New("no template loaded")
	ErrGestureActive  = errors.New("gesture already active")

	// Export pipeline errors.
	ErrExportInProgress  = errors.New("export already in progress")
	ErrAssetLoad         = errors.New("asset load failure")
	ErrMissingBackground = errors.New("background image missing")
	ErrEmptyDocument     = errors.New("exported document is empty")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// PersistenceError reports a failed call to the external template store.
// In-memory state is left intact, so the operation can be retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Retryable is always true: the caller keeps its state and may try again.
func (e *PersistenceError) Retryable() bool { return true }

// EncodingError reports that the document exporter could not produce output.
type EncodingError struct {
	Stage string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding (%s): %v", e.Stage, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
