// Package errs defines the error taxonomy shared by services and handlers.
// Services return these types; the HTTP layer maps them to status codes.
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ValidationError is a field-keyed validation failure. The caller can
// always recover by resubmitting corrected input.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidation builds a ValidationError with a single field message
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// Add appends a message for field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no message was recorded
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns e when it holds messages and nil otherwise
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NotFoundError reports that a referenced resource does not exist. Field
// is set when the reference came from a payload field (tags, ingredients).
type NotFoundError struct {
	Field   string
	Message string
}

// NewNotFound builds a NotFoundError without a payload field
func NewNotFound(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func (e *NotFoundError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("not found: %s: %s", e.Field, e.Message)
	}
	return "not found: " + e.Message
}

// PermissionError means the requester is authenticated but not authorized
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return "permission denied: " + e.Message
}

// UnauthenticatedError means the action requires a signed-in identity
type UnauthenticatedError struct {
	Message string
}

func (e *UnauthenticatedError) Error() string {
	return "unauthenticated: " + e.Message
}

var (
	ErrPermissionDenied = &PermissionError{Message: "You do not have permission to perform this action."}
	ErrNotAuthenticated = &UnauthenticatedError{Message: "Authentication credentials were not provided."}
)

// StatusCode maps err onto an HTTP status
func StatusCode(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		permission *PermissionError
		unauth     *UnauthenticatedError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &permission):
		return http.StatusForbidden
	case errors.As(err, &unauth):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Body renders err as the JSON body clients receive. Internal errors never
// leak their message.
func Body(err error) any {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		permission *PermissionError
		unauth     *UnauthenticatedError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Fields
	case errors.As(err, &notFound):
		if notFound.Field != "" {
			return map[string]string{notFound.Field: notFound.Message}
		}
		return map[string]string{"detail": notFound.Message}
	case errors.As(err, &permission):
		return map[string]string{"detail": permission.Message}
	case errors.As(err, &unauth):
		return map[string]string{"detail": unauth.Message}
	default:
		return map[string]string{"detail": "internal server error"}
	}
}
