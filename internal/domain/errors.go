package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies caller-visible failures. The HTTP layer maps kinds to
// status codes; hardware-facing paths only ever see KindMalformedSignal,
// which is logged and dropped, never escalated.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindTransientStore
	KindMalformedSignal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindTransientStore:
		return "transient_store"
	case KindMalformedSignal:
		return "malformed_signal"
	default:
		return "unknown"
	}
}

// Error carries a kind alongside the message so callers can branch on the
// failure class without string matching.
type Error struct {
	Kind    ErrorKind
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

// ErrValidation builds a validation error.
func ErrValidation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ErrConflict builds a conflict error.
func ErrConflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound builds a not-found error.
func ErrNotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// ErrTransientStore wraps a persistence failure that is safe to retry.
func ErrTransientStore(msg string, err error) error {
	return &Error{Kind: KindTransientStore, Message: msg, Err: err}
}

// ErrMalformedSignal wraps an unparseable hardware payload.
func ErrMalformedSignal(format string, args ...interface{}) error {
	return &Error{Kind: KindMalformedSignal, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
