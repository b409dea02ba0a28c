// Package apperror defines the error taxonomy shared by the lifecycle core and
// the API layer. Callers match on kind with errors.Is against the Err* values.
package apperror

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindCapacity
	KindAuthorization
	KindInvalidTransition
	KindDuplicate
	KindNotFound
	KindInvariant
	KindUnauthenticated
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindCapacity:
		return "capacity"
	case KindAuthorization:
		return "authorization"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindDuplicate:
		return "duplicate"
	case KindNotFound:
		return "not_found"
	case KindInvariant:
		return "invariant"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
	// Fields carries per-field validation messages keyed by json name.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrCapacity) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrCapacity          = &Error{Kind: KindCapacity, Message: "not enough seats"}
	ErrAuthorization     = &Error{Kind: KindAuthorization, Message: "forbidden"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "invalid transition"}
	ErrDuplicate         = &Error{Kind: KindDuplicate, Message: "duplicate"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvariant         = &Error{Kind: KindInvariant, Message: "invariant violated"}
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
)

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Invalid wraps the field errors produced by request validation.
func Invalid(fields map[string]string, summary string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed: " + summary, Fields: fields}
}

func Capacity(format string, args ...any) *Error {
	return New(KindCapacity, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindAuthorization, format, args...)
}

func InvalidTransition(format string, args ...any) *Error {
	return New(KindInvalidTransition, format, args...)
}

func Duplicate(format string, args ...any) *Error {
	return New(KindDuplicate, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Invariant(format string, args ...any) *Error {
	return New(KindInvariant, format, args...)
}

func Unauthenticated(format string, args ...any) *Error {
	return New(KindUnauthenticated, format, args...)
}

// Conflict reports contention the caller may retry, such as a busy ride lock.
func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
