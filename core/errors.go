package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NetworkError indicates a transport-level failure talking to the school
// backend: connection refused, DNS, timeout. It is distinct from a rejected
// request so callers can suggest a retry instead of a credentials re-check.
type NetworkError struct {
	Op  string
	Err error
}

func NewNetworkError(op string, err error) error {
	return &NetworkError{Op: op, Err: err}
}

func (e NetworkError) Error() string {
	return "network failure: " + e.Op + ": " + e.Err.Error()
}

func (e NetworkError) Unwrap() error { return e.Err }

func IsNetworkError(err error) bool {
	_, ok := errors.Cause(err).(*NetworkError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
