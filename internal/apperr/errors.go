// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified domain error.
type Error struct {
	Kind     Kind
	Entity   string // NotFound
	Field    string // Validation
	Reason   string
	Expected string // Conflict
	Actual   string // Conflict
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s not found", e.Entity)
	case KindForbidden:
		return "access denied - " + e.Reason
	case KindValidation:
		if e.Field != "" {
			return fmt.Sprintf("%s: %s", e.Field, e.Reason)
		}
		return e.Reason
	case KindConflict:
		if e.Reason != "" {
			return e.Reason
		}
		return fmt.Sprintf("conflict: expected %s, got %s", e.Expected, e.Actual)
	default:
		if e.Err != nil {
			return "internal error: " + e.Err.Error()
		}
		return "internal error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity}
}

func Forbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason}
}

func Validation(field, reason string) *Error {
	return &Error{Kind: KindValidation, Field: field, Reason: reason}
}

// Conflict reports that the aggregate was not in the expected state.
func Conflict(expected, actual, reason string) *Error {
	return &Error{Kind: KindConflict, Expected: expected, Actual: actual, Reason: reason}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf classifies err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
