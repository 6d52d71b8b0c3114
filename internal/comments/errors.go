package comments

import (
	"errors"
	"fmt"
)

// ValidationError reports caller-supplied data that fails a precondition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StoreError wraps a failure of the row store. Op names the store call.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("comment store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Cause lets github.com/pkg/errors.Cause see through the wrapper.
func (e *StoreError) Cause() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// EnrichmentError is a failed profile lookup for a single node. It is logged
// and never fails a load.
type EnrichmentError struct {
	CommentID string
	UserID    string
	Err       error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrich comment %s (user %s): %v", e.CommentID, e.UserID, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// ErrNotFound is returned by a RowStore when the requested comment does not exist.
var ErrNotFound = errors.New("comment not found")

var (
	errStaleResult = errors.New("stale load result discarded")
	errClosed      = errors.New("synchronizer closed")
)

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsStore(err error) bool {
	var s *StoreError
	return errors.As(err, &s)
}
