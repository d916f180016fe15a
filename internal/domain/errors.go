package domain

import (
	"errors"
	"fmt"
)

// Kind is the machine-checkable classification of an error. Every error
// surfaced to a caller carries a Kind and a human-readable message.
type Kind int

const (
	// KindUnknown is the zero value for errors that were not classified.
	KindUnknown Kind = iota
	// KindNotFound: owner, branch, or transaction absent.
	KindNotFound
	// KindConflict: duplicate branch path or duplicate email.
	KindConflict
	// KindInvalidInput: malformed date, missing field, weak password.
	KindInvalidInput
	// KindUnauthorized: bad, expired, or absent credential token.
	KindUnauthorized
	// KindStorage: underlying data-store I/O failure.
	KindStorage
	// KindDependency: blob store or mail delivery failure.
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindUnauthorized:
		return "unauthorized"
	case KindStorage:
		return "storage_error"
	case KindDependency:
		return "dependency_error"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with a message and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind and message.
func E(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// NotFoundf formats a NotFound error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflictf formats a Conflict error.
func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// InvalidInputf formats an InvalidInput error.
func InvalidInputf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

// Unauthorizedf formats an Unauthorized error.
func Unauthorizedf(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

// StorageErr wraps a data-store failure.
func StorageErr(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// DependencyErr wraps a blob-store or mail failure.
func DependencyErr(msg string, err error) *Error {
	return &Error{Kind: KindDependency, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, or KindUnknown if err carries none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
