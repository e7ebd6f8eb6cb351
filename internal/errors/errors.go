// Package errors provides error types for the connector onboarding tool.
// Errors are classified so the CLI can decide whether provider state may have
// been touched before the failure (and therefore whether rollback applies).
package errors

import (
	"errors"
	"fmt"
)

// AppError represents an application error with a classification code.
type AppError struct {
	// Code is an error code string for programmatic handling
	Code string
	// Message is a user-friendly error message
	Message string
	// Cause is the underlying error (for error wrapping)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is to work with AppError.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code != "" && e.Code == t.Code
	}
	return false
}

// Predefined error codes.
const (
	// ErrCodeInvalidConfig marks configuration or flag validation failures.
	// No provider state has been touched when one of these is returned.
	ErrCodeInvalidConfig = "INVALID_CONFIG"
	// ErrCodeInvalidInput marks rejected operator input (empty or malformed).
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeProviderCall marks a failed call against the cloud provider.
	ErrCodeProviderCall = "PROVIDER_CALL_FAILED"
	// ErrCodeRollbackStep marks a failed best-effort rollback step. These are
	// reported but never escalate into a second-level failure.
	ErrCodeRollbackStep = "ROLLBACK_STEP_FAILED"
)

// ErrInvalidConfig creates a configuration validation error.
func ErrInvalidConfig(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message, Cause: cause}
}

// ErrInvalidInput creates an operator input error.
func ErrInvalidInput(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message, Cause: cause}
}

// ErrProviderCall creates a provider call error.
func ErrProviderCall(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeProviderCall, Message: message, Cause: cause}
}

// ErrRollbackStep creates a rollback step error.
func ErrRollbackStep(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeRollbackStep, Message: message, Cause: cause}
}

// IsConfigError reports whether err happened before any provider state was
// touched, meaning no rollback is required.
func IsConfigError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrCodeInvalidConfig || appErr.Code == ErrCodeInvalidInput
	}
	return false
}

// GetErrorCode extracts the error code from an error.
// Returns empty string if the error is not an AppError.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetErrorMessage extracts a user-friendly message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
