package domain

import (
	"errors"
	"fmt"
)

// Error classes shared by every cognitive component. Concrete errors wrap one
// of these so callers can branch with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrReferential = errors.New("referential error")
	ErrNotFound    = errors.New("not found")
	ErrStorage     = errors.New("storage error")
)

// ValidationError reports malformed input: out-of-range scale values,
// duplicate ids, unknown enum values.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for building a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ReferentialError reports an edge whose endpoint is not in the node set.
type ReferentialError struct {
	Edge   int
	NodeID string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("%s: edge %d references unknown node %q", ErrReferential, e.Edge, e.NodeID)
}

func (e *ReferentialError) Unwrap() error { return ErrReferential }

// StorageError wraps a failure of the storage collaborator.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// NewStorageError wraps err unless it is already a StorageError.
func NewStorageError(op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
