package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error codes shared by every client component.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeAuthRequired    = "AUTH_REQUIRED"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeRejected        = "REMOTE_REJECTED"
	CodeUnreachable     = "UNREACHABLE"
	CodeBusy            = "BUSY"
)

// AppError represents a classified client error
type AppError struct {
	Code    string
	Message string
	// Status is the HTTP status of a rejected remote call, zero otherwise.
	Status int
	Err    error
}

func (e *AppError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	if e.Message == "" {
		return strings.ToLower(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewAuthRequiredError(message string) *AppError {
	return &AppError{
		Code:    CodeAuthRequired,
		Message: message,
	}
}

func NewUnauthenticatedError() *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: "no identity for the current session",
	}
}

// NewRejectedError wraps a non-2xx remote response. message is the text the
// remote sent back and may be empty.
func NewRejectedError(status int, message string) *AppError {
	return &AppError{
		Code:    CodeRejected,
		Message: message,
		Status:  status,
	}
}

func NewUnreachableError(err error) *AppError {
	return &AppError{
		Code:    CodeUnreachable,
		Message: "remote service unreachable",
		Err:     err,
	}
}

func NewBusyError(action string) *AppError {
	return &AppError{
		Code:    CodeBusy,
		Message: action + " already in progress",
	}
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsSuppressed reports whether err should not be shown to the user at all.
// Missing identity and caller cancellation are silent.
func IsSuppressed(err error) bool {
	return HasCode(err, CodeUnauthenticated) || errors.Is(err, context.Canceled)
}

// UserMessage returns the text to show for a failed action: a validation
// message or the remote's own message verbatim when present, the fallback
// otherwise. Suppressed errors yield "".
func UserMessage(err error, fallback string) string {
	if err == nil || IsSuppressed(err) {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeValidation, CodeBusy:
			return appErr.Message
		case CodeRejected:
			if appErr.Message != "" {
				return appErr.Message
			}
		}
	}
	return fallback
}
