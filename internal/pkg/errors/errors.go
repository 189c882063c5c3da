// Package errors provides the application error model for fieldops.
//
// Every error that crosses the orchestrator boundary is an *AppError carrying a
// Kind from a closed set, a stable machine-readable Code and a human-readable
// Message. The HTTP layer maps Kind to a status code without string matching.
//
// Import Path: fieldops.io/fieldops/internal/pkg/errors
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an AppError.
type Kind string

const (
	KindValidationFailed      Kind = "ValidationFailed"
	KindNotFound              Kind = "NotFound"
	KindBusinessRuleViolation Kind = "BusinessRuleViolation"
	KindConflict              Kind = "Conflict"
	KindInternal              Kind = "Internal"
)

// HTTPStatus returns the default HTTP status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindBusinessRuleViolation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Sentinel errors for common failure scenarios.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInternal      = errors.New("internal error")
	ErrConflict      = errors.New("conflict")
)

// AppError is a structured application error with kind, code and HTTP status.
type AppError struct {
	// Kind is the error class (ValidationFailed, NotFound, ...).
	Kind Kind `json:"kind"`

	// Code is a machine-readable error code (e.g., "QUOTE_NOT_FOUND").
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// HTTPStatus is the corresponding HTTP status code.
	HTTPStatus int `json:"-"`

	// Params carries structured context for the caller.
	Params map[string]interface{} `json:"params,omitempty"`

	// FieldErrors carries field-level validation details for form binding.
	FieldErrors []FieldError `json:"field_errors,omitempty"`

	// Err is the wrapped underlying error.
	Err error `json:"-"`
}

// FieldError describes a field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError of the given kind.
func New(kind Kind, code, message string) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: kind.HTTPStatus(),
	}
}

// Wrap wraps an existing error into an AppError.
func Wrap(err error, kind Kind, code, message string) *AppError {
	appErr := New(kind, code, message)
	appErr.Err = err
	return appErr
}

// WithParams attaches structured parameters to the error.
func (e *AppError) WithParams(params map[string]interface{}) *AppError {
	if e == nil || len(params) == 0 {
		return e
	}
	e.Params = params
	return e
}

// WithFieldErrors attaches field-level errors to the AppError.
func (e *AppError) WithFieldErrors(fieldErrors []FieldError) *AppError {
	if e == nil || len(fieldErrors) == 0 {
		return e
	}
	e.FieldErrors = fieldErrors
	return e
}

// Common error constructors.

// Validation creates a ValidationFailed error whose message joins every field message.
func Validation(fieldErrors ...FieldError) *AppError {
	msgs := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		if fe.Message != "" {
			msgs = append(msgs, fe.Message)
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", fe.Field, fe.Code))
	}
	msg := strings.Join(msgs, "; ")
	if msg == "" {
		msg = "validation failed"
	}
	return New(KindValidationFailed, CodeValidationFailed, msg).WithFieldErrors(fieldErrors)
}

// NotFound creates a 404 error.
func NotFound(code, message string) *AppError {
	return New(KindNotFound, code, message)
}

// BusinessRule creates a business-rule violation.
func BusinessRule(code, message string) *AppError {
	return New(KindBusinessRuleViolation, code, message)
}

// Conflict creates a 409 error.
func Conflict(code, message string) *AppError {
	return New(KindConflict, code, message)
}

// Internal creates a 500 error.
func Internal(code, message string) *AppError {
	return New(KindInternal, code, message)
}

// IsAppError checks if an error is an AppError and returns it.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err, or KindInternal for non-AppErrors.
func KindOf(err error) Kind {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
