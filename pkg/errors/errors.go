package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrInvalidSchedule
	ErrTreatmentCreation
	ErrDispatchFailure
)

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// InvalidSchedule rejects a prescription whose frequency or duration cannot
// produce a dose sequence. Treatment creation fails as a whole on this error.
func InvalidSchedule(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidSchedule,
		Message: message,
	}
}

// TreatmentCreation wraps any failure during the atomic create-with-doses
// operation. The underlying cause is preserved for Unwrap.
func TreatmentCreation(err error) *AppError {
	return &AppError{
		Code:    ErrTreatmentCreation,
		Message: "treatment creation failed",
		Err:     err,
	}
}

// DispatchFailure marks a per-recipient notification failure. It is logged
// and skipped by the poller, never propagated past the tick boundary.
func DispatchFailure(recipient string, err error) *AppError {
	return &AppError{
		Code:    ErrDispatchFailure,
		Message: fmt.Sprintf("notification dispatch to %s failed", recipient),
		Err:     err,
	}
}

// Code extracts the ErrorCode from err, or ErrInternal if err is not an AppError.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsNotFound reports whether err carries the not-found code.
func IsNotFound(err error) bool {
	return Code(err) == ErrNotFound
}
