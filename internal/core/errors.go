// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Kind groups error codes into the three failure classes a run reports.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindFetch         Kind = "fetch"
	KindWrite         Kind = "write"
	KindUnknown       Kind = "unknown"
)

// Error represents a structured error with kind, code and optional cause.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same kind and code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Kind:    base.Kind,
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// StatusError creates a fetch error for a non-2xx provider response.
func StatusError(statusCode int, body string) *Error {
	e := WrapError(ErrFetchStatus, nil)
	e.StatusCode = statusCode
	if body != "" {
		e.Cause = errors.New(body)
	}
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e.Kind != "" {
		return e.Kind
	}
	return KindUnknown
}

// Predefined errors
var (
	// Configuration errors abort a run before any network call
	ErrConfigInvalid   = &Error{Kind: KindConfiguration, Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing   = &Error{Kind: KindConfiguration, Code: "CONFIG_MISSING", Message: "required configuration missing"}
	ErrUnknownSchedule = &Error{Kind: KindConfiguration, Code: "UNKNOWN_SCHEDULE", Message: "unrecognized schedule"}

	// Fetch errors are recorded per item
	ErrFetchFailed  = &Error{Kind: KindFetch, Code: "FETCH_FAILED", Message: "fetch failed"}
	ErrFetchStatus  = &Error{Kind: KindFetch, Code: "FETCH_STATUS", Message: "provider returned non-success status"}
	ErrFetchTimeout = &Error{Kind: KindFetch, Code: "FETCH_TIMEOUT", Message: "fetch timeout"}
	ErrFetchDecode  = &Error{Kind: KindFetch, Code: "FETCH_DECODE", Message: "response is not valid JSON"}

	// Write errors are recorded per item
	ErrWriteFailed      = &Error{Kind: KindWrite, Code: "WRITE_FAILED", Message: "write failed"}
	ErrWriteCredentials = &Error{Kind: KindWrite, Code: "WRITE_CREDENTIALS", Message: "storage credentials unavailable"}
	ErrWriteEncode      = &Error{Kind: KindWrite, Code: "WRITE_ENCODE", Message: "record serialization failed"}
)
