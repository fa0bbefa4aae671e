// Package errors provides typed errors with machine-readable codes.
//
// Callers match a kind with errors.Is against the sentinels:
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    // no prior schema
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidValue Code = "INVALID_VALUE"
	CodeUnsupported  Code = "UNSUPPORTED"
	CodeSource       Code = "SOURCE"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInvalidValue = &Error{Code: CodeInvalidValue, Message: "invalid value"}
	ErrUnsupported  = &Error{Code: CodeUnsupported, Message: "unsupported"}
	ErrSource       = &Error{Code: CodeSource, Message: "data source error"}
)

// NotFound creates a not-found error wrapping cause.
func NotFound(msg string, cause error) *Error {
	return &Error{Code: CodeNotFound, Message: msg, Err: cause}
}

// InvalidValue creates an invalid-value error.
func InvalidValue(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidValue, Message: fmt.Sprintf(format, args...)}
}

// Unsupported creates an unsupported-input error.
func Unsupported(format string, args ...any) *Error {
	return &Error{Code: CodeUnsupported, Message: fmt.Sprintf(format, args...)}
}

// Source wraps a failure reading a data source.
func Source(msg string, cause error) *Error {
	return &Error{Code: CodeSource, Message: msg, Err: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
