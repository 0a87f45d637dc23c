// Package dberr provides the typed error kinds shared by the compiler and
// every executor backend. Backend-specific transport failures are wrapped
// as the Transport kind; everything else is a structured request or
// compilation error.
package dberr

import (
	"errors"
	"fmt"
)

// Kind discriminates the error categories callers are expected to branch on.
type Kind int

const (
	// KindTransport is an underlying driver or network failure.
	KindTransport Kind = iota + 1
	// KindNoRow means an insert/upsert that must return exactly one row
	// returned none.
	KindNoRow
	// KindInvalidRequest is a malformed statement, e.g. a multi-row batch
	// with inconsistent row schemas.
	KindInvalidRequest
	// KindMissingUnique means a multi-row upsert was issued without a
	// conflict target.
	KindMissingUnique
	// KindTypeNotFound means a result column's native type has no mapping
	// into the value model.
	KindTypeNotFound
	// KindUnsupportedNullComparison means an ordering comparison
	// (>, >=, <, <=) was attempted against a NULL operand.
	KindUnsupportedNullComparison
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindNoRow:
		return "no_row"
	case KindInvalidRequest:
		return "invalid_request"
	case KindMissingUnique:
		return "missing_unique"
	case KindTypeNotFound:
		return "type_not_found"
	case KindUnsupportedNullComparison:
		return "unsupported_null_comparison"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error implements the error interface with a kind tag and optional cause.
type Error struct {
	kind    Kind
	message string
	cause   error

	// TypeName is set for KindTypeNotFound.
	TypeName string
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Kind returns the error category.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the error message without the cause.
func (e *Error) Message() string { return e.message }

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error { return e.cause }

// Transport wraps an underlying driver failure.
func Transport(cause error) *Error {
	return &Error{kind: KindTransport, message: "transport error", cause: cause}
}

// NoRow reports a write that should have returned a row but did not.
func NoRow(context string) *Error {
	return &Error{kind: KindNoRow, message: fmt.Sprintf("%s returned no row", context)}
}

// InvalidRequest reports a malformed statement with a formatted message.
func InvalidRequest(format string, args ...any) *Error {
	return &Error{kind: KindInvalidRequest, message: fmt.Sprintf(format, args...)}
}

// MissingUnique reports a multi-row upsert without a conflict target.
func MissingUnique() *Error {
	return &Error{kind: KindMissingUnique, message: "upsert multi requires unique columns"}
}

// TypeNotFound reports a result column type with no value-model mapping.
func TypeNotFound(typeName string) *Error {
	return &Error{
		kind:     KindTypeNotFound,
		message:  fmt.Sprintf("no value mapping for column type %q", typeName),
		TypeName: typeName,
	}
}

// UnsupportedNullComparison reports an ordering comparison against NULL.
func UnsupportedNullComparison(op string) *Error {
	return &Error{
		kind:    KindUnsupportedNullComparison,
		message: fmt.Sprintf("ordering comparison %q against NULL operand", op),
	}
}

// IsKind reports whether err is (or wraps) a *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.kind == k
}
