package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind is the closed set of failure categories surfaced by the event and booking services.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindCast         ErrorKind = "cast"
	KindConflict     ErrorKind = "conflict"
	KindNotFound     ErrorKind = "not_found"
	KindUpload       ErrorKind = "upload"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
)

// Error is a categorized failure. Fields maps an input field name to a human-readable
// message when the failure can be attributed to specific fields.
type Error struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(parts, "; "))
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so the sentinels below
// match any error of their kind regardless of message or fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel errors, one per kind. Use errors.Is(err, domain.ErrNotFound) etc.
var (
	ErrValidation   = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrCast         = &Error{Kind: KindCast, Message: "invalid data format"}
	ErrConflict     = &Error{Kind: KindConflict, Message: "already exists"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUpload       = &Error{Kind: KindUpload, Message: "image upload failed"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden"}
)

// NewValidationError returns a validation error carrying one message per offending field.
func NewValidationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

// NewCastError reports that the raw value of field could not be coerced to its type.
func NewCastError(field string, err error) *Error {
	return &Error{
		Kind:    KindCast,
		Message: fmt.Sprintf("Invalid data format for %s", field),
		Fields:  map[string]string{field: fmt.Sprintf("Invalid %s format", field)},
		Err:     err,
	}
}

// NewConflictError reports a unique-constraint violation attributed to field.
func NewConflictError(field string, err error) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("%s already exists", field),
		Fields:  map[string]string{field: fmt.Sprintf("%s must be unique", field)},
		Err:     err,
	}
}

// NewNotFoundError reports that the named resource does not exist.
func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// NewUploadError wraps an image store failure.
func NewUploadError(err error) *Error {
	return &Error{Kind: KindUpload, Message: "Image upload failed", Err: err}
}

// KindOf returns the kind of err, or "" when err is not a categorized *Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// FieldErrors returns the per-field messages attached to err, if any.
func FieldErrors(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}
