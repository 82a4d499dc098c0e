package errors

import (
	stderrors "errors"
	"fmt"
)

// StorageError wraps a failure of the persistence backend.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err; a nil err yields nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// UnknownHandlerError is logged when a fired record names a handler nobody registered.
type UnknownHandlerError struct {
	Name string
}

func (e *UnknownHandlerError) Error() string {
	return fmt.Sprintf("no handler registered as %q", e.Name)
}

// HandlerExecutionError is produced when a handler returns an error or panics.
type HandlerExecutionError struct {
	Name     string
	ActionID int64
	Err      error
}

func (e *HandlerExecutionError) Error() string {
	return fmt.Sprintf("handler %q (job #%d) failed: %v", e.Name, e.ActionID, e.Err)
}

func (e *HandlerExecutionError) Unwrap() error { return e.Err }

// InvalidScheduleError rejects bad input to Schedule before anything is persisted.
type InvalidScheduleError struct {
	Reason string
}

func (e *InvalidScheduleError) Error() string {
	return "invalid schedule: " + e.Reason
}

// Invalidf builds an InvalidScheduleError.
func Invalidf(format string, a ...interface{}) error {
	return &InvalidScheduleError{Reason: fmt.Sprintf(format, a...)}
}

// IsInvalidSchedule reports whether err is (or wraps) an InvalidScheduleError.
func IsInvalidSchedule(err error) bool {
	var target *InvalidScheduleError
	return stderrors.As(err, &target)
}

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var target *StorageError
	return stderrors.As(err, &target)
}

// Is and As re-export the standard helpers so callers need a single errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }
