package storage

import (
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrNotFound is returned when an object doesn't exist.
	ErrNotFound = errors.New("object not found")

	// ErrKeyExists is returned when attempting to overwrite without permission.
	ErrKeyExists = errors.New("object already exists")

	// ErrInvalidKey is returned for malformed or unsafe keys.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrTooLarge is returned when data exceeds the configured size limit.
	ErrTooLarge = errors.New("object exceeds maximum size")

	// ErrAccessDenied is returned on authentication or permission failures.
	ErrAccessDenied = errors.New("access denied")
)

// =============================================================================
// Error Wrapper
// =============================================================================

// StorageError wraps storage operation failures with context.
type StorageError struct {
	Op  string // operation: "put", "get", "delete", "url", "exists"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Helpers
// =============================================================================

// IsNotFound reports whether err indicates a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsKeyExists reports whether err indicates a key conflict.
func IsKeyExists(err error) bool {
	return errors.Is(err, ErrKeyExists)
}

// IsTooLarge reports whether err indicates a size limit violation.
func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}
