package utils

import (
	"errors"
	"fmt"
)

// Error kinds shared by every component. Wrap them with %w so handlers
// can map a failure to a status line and HTTP code.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrTransport     = errors.New("transport error")
	ErrAuthorization = errors.New("authorization error")
	ErrPersistence   = errors.New("persistence error")
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
)

// AppError represents a custom application error with context
type AppError struct {
	Code    int                    // HTTP status code
	Message string                 // User-friendly message
	Err     error                  // Underlying error
	Context map[string]interface{} // Additional context
}

// NewAppError creates a new AppError
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Context: make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying error to errors.Is/As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	e.Context[key] = value
	return e
}

// StatusCode picks the HTTP status for an error produced anywhere in the app.
func StatusCode(err error) int {
	var appErr *AppError
	switch {
	case err == nil:
		return 200
	case errors.As(err, &appErr):
		return appErr.Code
	case errors.Is(err, ErrValidation):
		return 400
	case errors.Is(err, ErrAuthorization):
		return 401
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrConfiguration):
		return 412
	case errors.Is(err, ErrTransport):
		return 502
	default:
		return 500
	}
}

// Common error constructors
func BadRequestError(message string, err error) *AppError {
	return NewAppError(400, message, err)
}

func UnauthorizedError(message string, err error) *AppError {
	return NewAppError(401, message, err)
}

func NotFoundError(message string, err error) *AppError {
	return NewAppError(404, message, err)
}

func InternalServerError(message string, err error) *AppError {
	return NewAppError(500, message, err)
}
