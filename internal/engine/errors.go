package engine

import (
	"errors"
	"fmt"
)

// ErrValidation is returned for input rejected at the engine boundary:
// an empty task name, an unknown status, or expired on a task without a
// deadline.
var ErrValidation = errors.New("validation error")

// StorageError wraps any failure reported by the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
