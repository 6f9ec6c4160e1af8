package errors

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskExists       = errors.New("task already exists")
	ErrStoreUnavailable = errors.New("task store unavailable")
	ErrQueueClosed      = errors.New("work queue is closed")
	ErrQueueFull        = errors.New("work queue is full")
)

// ValidationError is returned for malformed or unsupported input URLs.
// These are rejected before a task is ever created and are never retried.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// ExtractionError reports a failure of the media extraction engine. Message
// holds the user-facing text stored on the task record; Permanent marks
// failures that no amount of retrying will fix (removed or private media).
type ExtractionError struct {
	Message   string
	Permanent bool
	Err       error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether err is an extraction failure that should not
// be retried even on the first attempt.
func IsPermanent(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Permanent
}

// StorageError wraps a persistence fault that survived the store's internal
// retries. Callers treat it as a failed outcome, not a crash.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("task storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
