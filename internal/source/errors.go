package source

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a source failure.
type ErrorKind string

const (
	KindRateLimit ErrorKind = "rate_limit"
	KindAuth      ErrorKind = "auth"
	KindNotFound  ErrorKind = "not_found"
	KindTransport ErrorKind = "transport"
	KindTruncated ErrorKind = "truncated"
)

// Error is a source failure tagged with its kind and the repository
// identifier it concerns. Callers discriminate with errors.As and the Kind
// field, never by message text.
type Error struct {
	Kind  ErrorKind
	Ident string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source: %s: %s: %v", e.Ident, e.Kind, e.Err)
	}
	return fmt.Sprintf("source: %s: %s", e.Ident, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind from err, or returns "" when err is not a
// source error.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
