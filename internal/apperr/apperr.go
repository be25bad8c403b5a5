// Package apperr defines the error template type shared by Vela packages
package apperr

import (
	"errors"
	"fmt"
)

// Error is a reusable error template. Package-level templates are declared
// once and specialised with Fmt or Wrap; the derived errors still match the
// template with errors.Is.
type Error struct {
	Message string
	Cause   error
	base    *Error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}

	return e.Message
}

// Fmt returns a copy of the template with its message formatted using the
// provided arguments.
func (e *Error) Fmt(a ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(e.Message, a...),
		Cause:   e.Cause,
		base:    e.root(),
	}
}

// Wrap returns a copy of the template that wraps err.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		Message: e.Message,
		Cause:   err,
		base:    e.root(),
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the template this error was derived from.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return e.root() == t.root()
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}
