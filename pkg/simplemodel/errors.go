package simplemodel

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrRecordNotFound indicates no record exists for the given identifier.
	ErrRecordNotFound = errors.New("record not found")

	// ErrMissingIdentifier indicates an operation required a saved model but
	// the identifier was unset.
	ErrMissingIdentifier = errors.New("missing identifier")

	// ErrDriverRequired indicates a database was constructed without a driver.
	ErrDriverRequired = errors.New("driver is required")

	// ErrInvalidFilter indicates a query filter with an unknown operator.
	ErrInvalidFilter = errors.New("invalid query filter")

	// ErrInvalidChunkSize indicates a non-positive chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrNotSoftDeleted indicates a restore on a record that is not deleted.
	ErrNotSoftDeleted = errors.New("record is not soft-deleted")
)

// ModelError represents an error from a store operation on an entity.
type ModelError struct {
	Entity string
	Op     string
	Err    error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model operation %s failed for entity %s: %v", e.Op, e.Entity, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// HookAbortError reports that a lifecycle hook cancelled the operation.
type HookAbortError struct {
	Hook string
	Err  error
}

func (e *HookAbortError) Error() string {
	return fmt.Sprintf("operation aborted by %s hook: %v", e.Hook, e.Err)
}

func (e *HookAbortError) Unwrap() error {
	return e.Err
}

// DriverError represents an error from a storage driver.
type DriverError struct {
	Driver string
	Entity string
	Op     string
	Err    error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("driver %s operation %s failed for entity %s: %v", e.Driver, e.Op, e.Entity, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}
