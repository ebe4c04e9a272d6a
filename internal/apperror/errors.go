// Package apperror defines the error taxonomy shared by services and
// handlers. Every error carries an HTTP status code, a machine-readable
// type and a message that is safe to return to the client. The Echo error
// handler maps these onto the uniform response envelope.
//
// Raw database or driver errors must never reach the client; wrap them in
// NewInternal or map them to a more specific type first.
package apperror

import (
	"fmt"
	"net/http"
)

// AppError is the concrete error type used across the application.
type AppError struct {
	// Code is the HTTP status code (401, 409, ...).
	Code int `json:"-"`

	// Type is a machine-readable classifier such as "unauthorized".
	Type string `json:"type"`

	// Message is human readable and safe to show to the client.
	Message string `json:"message"`

	// Internal holds the underlying cause for logging. Never exposed.
	Internal error `json:"-"`

	// Meta carries caller-actionable detail such as retry_after or
	// remaining_attempts. Rendered into the response data object.
	Meta map[string]any `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying error to errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is matches AppErrors by type and message, so a WithMeta copy still
// compares equal to its sentinel under errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Type == e.Type && t.Message == e.Message
}

// WithMeta returns a shallow copy carrying an extra meta entry, so the
// shared sentinel values stay immutable.
func (e *AppError) WithMeta(key string, value any) *AppError {
	cp := *e
	cp.Meta = make(map[string]any, len(e.Meta)+1)
	for k, v := range e.Meta {
		cp.Meta[k] = v
	}
	cp.Meta[key] = value
	return &cp
}

// NewValidation creates a 400 for malformed or missing input.
func NewValidation(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Type: "validation_error", Message: message}
}

// NewUnauthorized creates a 401 for missing, invalid or expired credentials.
func NewUnauthorized(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Type: "unauthorized", Message: message}
}

// NewForbidden creates a 403 for inactive accounts or insufficient role.
func NewForbidden(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Type: "forbidden", Message: message}
}

// NewNotFound creates a 404.
func NewNotFound(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Type: "not_found", Message: message}
}

// NewConflict creates a 409 for duplicate natural keys.
func NewConflict(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Type: "conflict", Message: message}
}

// NewRateLimited creates a 429 carrying the retry window in seconds.
func NewRateLimited(message string, retryAfterSeconds int) *AppError {
	e := &AppError{Code: http.StatusTooManyRequests, Type: "rate_limited", Message: message}
	return e.WithMeta("retry_after", retryAfterSeconds)
}

// NewInternal creates a 500. The cause is kept for logging only; the client
// sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "an unexpected error occurred",
		Internal: err,
	}
}

// SafeCode returns the status code for any error, defaulting to 500.
func SafeCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// SafeMessage returns the client-safe message for any error.
func SafeMessage(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}
