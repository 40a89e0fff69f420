package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Repository outcomes
	ErrorTypeNotFound            ErrorType = "NOT_FOUND"
	ErrorTypeInvalidEdgeType     ErrorType = "INVALID_EDGE_TYPE"
	ErrorTypeConstraintViolation ErrorType = "CONSTRAINT_VIOLATION"
	ErrorTypeTransactionFailure  ErrorType = "TRANSACTION_FAILURE"
	ErrorTypeCanceled            ErrorType = "CANCELED"

	// Request errors
	ErrorTypeValidation ErrorType = "VALIDATION"

	// Application errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}

// NewNotFoundError creates a not found error for a resource and its id.
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s '%s' not found", resource, id),
		Details:    map[string]interface{}{"resource": resource, "id": id},
		HTTPStatus: http.StatusNotFound,
		StackTrace: captureStackTrace(),
	}
}

// NewInvalidEdgeTypeError is returned when a relation kind is outside the
// closed vocabulary. It is raised before any query text is built.
func NewInvalidEdgeTypeError(kind string, allowed []string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidEdgeType,
		Message:    fmt.Sprintf("invalid relation kind %q", kind),
		Details:    map[string]interface{}{"allowed": allowed},
		HTTPStatus: http.StatusBadRequest,
		StackTrace: captureStackTrace(),
	}
}

// NewConstraintViolationError marks a broken uniqueness guarantee. It is an
// integrity failure and must not be swallowed.
func NewConstraintViolationError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeConstraintViolation,
		Message:    fmt.Sprintf("constraint violated during '%s'", operation),
		Cause:      err,
		HTTPStatus: http.StatusConflict,
		StackTrace: captureStackTrace(),
	}
}

// NewTransactionFailureError tags an error from the underlying atomic
// operation. The cause is kept untouched.
func NewTransactionFailureError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeTransactionFailure,
		Message:    fmt.Sprintf("transaction '%s' failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusServiceUnavailable,
		StackTrace: captureStackTrace(),
	}
}

// StatusClientClosedRequest is reported when the caller went away before
// the operation finished.
const StatusClientClosedRequest = 499

// NewCanceledError marks an operation abandoned because its context was
// cancelled or ran out of time. The graph itself did not fail.
func NewCanceledError(operation string, err error) *AppError {
	status := StatusClientClosedRequest
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	return &AppError{
		Type:       ErrorTypeCanceled,
		Message:    fmt.Sprintf("operation '%s' canceled", operation),
		Cause:      err,
		HTTPStatus: status,
		StackTrace: captureStackTrace(),
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		StackTrace: captureStackTrace(),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewUnavailableError creates a service unavailable error
func NewUnavailableError(service string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnavailable,
		Message:    fmt.Sprintf("service '%s' is unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
		StackTrace: captureStackTrace(),
	}
}

// Helper functions

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsInvalidEdgeType checks if an error is an invalid edge type error
func IsInvalidEdgeType(err error) bool {
	return IsType(err, ErrorTypeInvalidEdgeType)
}

// IsConstraintViolation checks if an error is a constraint violation
func IsConstraintViolation(err error) bool {
	return IsType(err, ErrorTypeConstraintViolation)
}

// IsTransactionFailure checks if an error is a transaction failure
func IsTransactionFailure(err error) bool {
	return IsType(err, ErrorTypeTransactionFailure)
}

// IsCanceled checks if an error is a canceled error
func IsCanceled(err error) bool {
	return IsType(err, ErrorTypeCanceled)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsUnavailable checks if an error is an unavailable error
func IsUnavailable(err error) bool {
	return IsType(err, ErrorTypeUnavailable)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, add context to message
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	// Otherwise create a new internal error
	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
