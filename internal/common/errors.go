package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTooLarge     = errors.New("payload too large")
	ErrInternal     = errors.New("internal error")
	ErrBackend      = errors.New("backend call failed")
	ErrTimeout      = errors.New("backend call timed out")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// BackendError carries the status code and body of a failed provider call.
type BackendError struct {
	Provider   string
	StatusCode int
	Body       string
	Cause      error
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s backend error: status %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s backend error: %v", e.Provider, e.Cause)
	}
	return fmt.Sprintf("%s backend error", e.Provider)
}

func (e *BackendError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrBackend
}

// HTTPStatus maps an application error to the HTTP status the REST layer
// should respond with. Backend failures are job-state concerns and are not
// mapped here; they surface as failed jobs, not 5xx responses.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
