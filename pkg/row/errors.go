// pkg/row/errors.go
package row

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnNotFound is the reason of an AccessError for an absent column.
	ErrColumnNotFound = errors.New("column not found")
	// ErrTypeMismatch is the reason of an AccessError for a column whose value
	// cannot be assigned to the requested destination.
	ErrTypeMismatch = errors.New("type mismatch")
)

// AccessError is the error a row source reports when a column cannot be read.
type AccessError struct {
	Key    Key
	Reason error // ErrColumnNotFound or ErrTypeMismatch
	Err    error // underlying cause, nil for missing columns
}

func (e *AccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row: column %s: %v: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("row: column %s: %v", e.Key, e.Reason)
}

// Unwrap exposes both the reason sentinel and the cause to errors.Is/As.
func (e *AccessError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func notFound(key Key) *AccessError {
	return &AccessError{Key: key, Reason: ErrColumnNotFound}
}

func mismatch(key Key, err error) *AccessError {
	return &AccessError{Key: key, Reason: ErrTypeMismatch, Err: err}
}
