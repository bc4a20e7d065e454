package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeUploadFailed       = "UPLOAD_FAILED"
	CodeStore              = "STORE_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailInUse         = "EMAIL_IN_USE"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeInternal           = "INTERNAL_ERROR"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func Validation(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

// UploadFailed keeps the image host's message so the reporter can tell a failed
// upload apart from a failed save.
func UploadFailed(err error) *AppError {
	return &AppError{
		Code:    CodeUploadFailed,
		Message: withCause("Failed to upload photo", err),
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// Store wraps a provider failure. The provider message is appended verbatim.
func Store(message string, err error) *AppError {
	return &AppError{
		Code:    CodeStore,
		Message: withCause(message, err),
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func InvalidCredentials(err error) *AppError {
	return &AppError{
		Code:    CodeInvalidCredentials,
		Message: "Invalid email or password",
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func EmailInUse(err error) *AppError {
	return &AppError{
		Code:    CodeEmailInUse,
		Message: "Email already in use",
		Status:  http.StatusConflict,
		Err:     err,
	}
}

func WeakPassword(message string, err error) *AppError {
	return &AppError{
		Code:    CodeWeakPassword,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// FromStore maps a Firestore error onto the taxonomy. An existing AppError is
// returned unchanged.
func FromStore(resource, action string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if status.Code(err) == codes.NotFound {
		return NotFound(resource, err)
	}
	return Store(fmt.Sprintf("Failed to %s %s", action, resource), err)
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsAuthorization reports whether err is a failed identity or role check.
func IsAuthorization(err error) bool {
	return Is(err, CodeUnauthorized) || Is(err, CodeForbidden)
}

func withCause(message string, err error) string {
	if err == nil {
		return message
	}
	return message + ": " + err.Error()
}
