// Package apperr defines the error taxonomy shared by the lifecycle
// managers. Every business-rule failure carries a stable machine-readable
// kind plus a human-readable message; validation failures additionally
// enumerate every violated field.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for API consumers.
type Kind string

// Error kinds.
const (
	KindValidation        Kind = "validation_error"
	KindUnauthenticated   Kind = "unauthenticated"
	KindForbidden         Kind = "forbidden"
	KindAccountDisabled   Kind = "account_disabled"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindSelfAction        Kind = "self_action"
	KindStore             Kind = "store_error"
)

// FieldViolation describes a single invalid input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldViolation
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// New constructs an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation constructs a validation error carrying all violations.
func Validation(fields []FieldViolation) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// NotFound constructs a not-found error for the named resource.
func NotFound(resource string) *Error {
	return Newf(KindNotFound, "%s not found", resource)
}

// Store wraps an opaque backing-store failure. The cause is preserved
// in the message for logs; callers see a generic server error.
func Store(err error) *Error {
	return Newf(KindStore, "store operation failed: %v", err)
}

// KindOf returns the kind of err, or the empty kind when err is not an
// application error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
