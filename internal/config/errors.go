package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration backends.
var (
	// ErrNotFound indicates the key has no value.
	ErrNotFound = errors.New("config value not found")

	// ErrReadOnly indicates a write was attempted on a read-only backend.
	ErrReadOnly = errors.New("configuration is read-only")

	// ErrIterOver signals the end of an iteration. It is not a failure.
	ErrIterOver = errors.New("iteration over")

	// ErrInvalidKey indicates a malformed configuration key.
	ErrInvalidKey = errors.New("invalid config key")

	// ErrNotUnique indicates a single-value operation on a multivar.
	ErrNotUnique = errors.New("config value is not unique")

	// ErrLocked indicates the backend is already locked.
	ErrLocked = errors.New("configuration is locked")

	// ErrNotLocked indicates Unlock was called without a matching Lock.
	ErrNotLocked = errors.New("configuration is not locked")

	// ErrNotOpen indicates the backend has not been opened.
	ErrNotOpen = errors.New("configuration backend is not open")

	// ErrInvalidValue indicates a value cannot be read as the requested
	// type.
	ErrInvalidValue = errors.New("invalid config value")
)

// ReadOnlyError is returned by every mutating operation on a read-only
// backend.
type ReadOnlyError struct {
	// Op is the rejected operation (e.g. "set", "delete").
	Op string
}

// Error implements the error interface.
func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("cannot %s: configuration is read-only", e.Op)
}

// Is implements error matching for ReadOnlyError.
func (e *ReadOnlyError) Is(target error) bool {
	return target == ErrReadOnly
}

// KeyError associates an error with the key it concerns.
type KeyError struct {
	// Key is the key as given by the caller.
	Key string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: '%s'", e.Err, e.Key)
}

// Unwrap returns the underlying error.
func (e *KeyError) Unwrap() error {
	return e.Err
}

// TypeError is returned when a value cannot be converted to the requested
// type.
type TypeError struct {
	// Key is the key the value was read from. Empty for bare parses.
	Key string
	// Value is the raw value.
	Value string
	// Expected is the requested type, e.g. "boolean".
	Expected string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid %s value: '%s'", e.Expected, e.Value)
	}
	return fmt.Sprintf("invalid %s value for '%s': '%s'", e.Expected, e.Key, e.Value)
}

// Is implements error matching for TypeError.
func (e *TypeError) Is(target error) bool {
	return target == ErrInvalidValue
}
