// Package apperr defines the error kinds the API surfaces to clients.
//
// Services return *Error values; the HTTP layer maps the Kind to a status
// code and renders Fields as DRF-style `{"field": ["message"]}` bodies.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindConflict           Kind = "conflict"
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "permission_denied"
	KindUnauthenticated    Kind = "not_authenticated"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindInternal           Kind = "internal_error"
)

// NonFieldErrors is the field key used for errors not tied to one input field.
const NonFieldErrors = "non_field_errors"

// Error is the canonical client-facing error.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
	// Cause is logged server side and never rendered.
	Cause error
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (e *Error) Unwrap() error { return e.Cause }

// Status returns the HTTP status for the error kind.
//
// Conflict shares 400 with validation failures; clients tell them apart by
// the "code" member of the body.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict, KindInvalidCredentials:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Validation builds a single-field validation error.
func Validation(field, msg string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "invalid input",
		Fields:  map[string][]string{field: {msg}},
	}
}

// Conflict builds a uniqueness violation error scoped to a field.
func Conflict(field, msg string) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: msg,
		Fields:  map[string][]string{field: {msg}},
	}
}

// NotFound builds a 404 error for the named resource.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

// InvalidCredentials reports a failed credential check on the given field.
func InvalidCredentials(field, msg string) *Error {
	return &Error{
		Kind:    KindInvalidCredentials,
		Message: msg,
		Fields:  map[string][]string{field: {msg}},
	}
}

// Internal wraps an unexpected failure. The cause never reaches the client.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Cause: cause}
}

// As extracts an *Error from err's chain, or nil.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	ae := As(err)
	return ae != nil && ae.Kind == kind
}

// FieldErrors accumulates validation failures across several fields.
type FieldErrors map[string][]string

// Add records msg against field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Merge folds a validation *Error produced by a single validator into f.
// Errors of any other kind are returned unchanged.
func (f FieldErrors) Merge(err error) error {
	if err == nil {
		return nil
	}
	ae := As(err)
	if ae == nil || ae.Kind != KindValidation {
		return err
	}
	for field, msgs := range ae.Fields {
		f[field] = append(f[field], msgs...)
	}
	return nil
}

// Err returns nil when nothing was recorded.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: f}
}
