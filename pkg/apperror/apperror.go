// Package apperror defines the single typed error the service returns from
// its flows. Handlers turn it into an HTTP status and the response envelope.
package apperror

import (
	"errors"
	"net/http"
)

// AppError carries an HTTP status and a client-safe message.
// Err is the optional cause; it is logged, never sent in production.
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// New builds an AppError with the given status.
func New(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

// Wrap attaches a cause to a new AppError.
func Wrap(err error, status int, message string) *AppError {
	return &AppError{Status: status, Message: message, Err: err}
}

func BadRequest(message string) *AppError   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *AppError { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *AppError    { return New(http.StatusForbidden, message) }
func NotFound(message string) *AppError     { return New(http.StatusNotFound, message) }
func Unprocessable(message string) *AppError {
	return New(http.StatusUnprocessableEntity, message)
}
func TooManyRequests(message string) *AppError {
	return New(http.StatusTooManyRequests, message)
}
func ServiceUnavailable(message string) *AppError {
	return New(http.StatusServiceUnavailable, message)
}

// Internal wraps an unexpected failure as a 500.
func Internal(err error) *AppError {
	return Wrap(err, http.StatusInternalServerError, "Something went wrong!")
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	if ae, ok := As(err); ok {
		return ae.Status
	}
	return http.StatusInternalServerError
}
