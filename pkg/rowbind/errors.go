// pkg/rowbind/errors.go
package rowbind

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDestination is returned (or panicked) when the destination of
	// a conversion is not a non-nil pointer.
	ErrInvalidDestination = errors.New("destination must be a non-nil pointer")
	// ErrRecursiveFlatten is returned when flattened fields lead back to a
	// record that is already being converted.
	ErrRecursiveFlatten = errors.New("recursive flatten")
	// ErrUnknownRecord is returned by a Catalog for record names it does not
	// hold.
	ErrUnknownRecord = errors.New("unknown record")
)

// OpaqueError is the error of a fallible conversion whose record flattens
// at least one field. It names the failing field and unwraps to the cause,
// which may be a *row.AccessError or the nested conversion's own error.
type OpaqueError struct {
	Record string
	Field  string
	Err    error
}

func (e *OpaqueError) Error() string {
	return fmt.Sprintf("rowbind: %s.%s: %v", e.Record, e.Field, e.Err)
}

func (e *OpaqueError) Unwrap() error { return e.Err }

// recovered turns a panic value raised by an infallible conversion back
// into an error.
func recovered(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("rowbind: conversion panicked: %v", v)
}
