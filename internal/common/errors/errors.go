// Package errors provides the standardized error taxonomy of the quote intake service.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Wizard / user input
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeNavigationLocked   ErrorCode = "NAVIGATION_LOCKED"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrCodeNotPersisted       ErrorCode = "NOT_PERSISTED"
	ErrCodeSessionSubmitted   ErrorCode = "SESSION_SUBMITTED"
	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeFileNotFound       ErrorCode = "FILE_NOT_FOUND"
	ErrCodeSuggestionNotFound ErrorCode = "SUGGESTION_NOT_FOUND"
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"

	// Submission pipeline
	ErrCodeUploadFailed      ErrorCode = "UPLOAD_FAILED"
	ErrCodePersistFailed     ErrorCode = "PERSIST_FAILED"
	ErrCodePersistInProgress ErrorCode = "PERSIST_IN_PROGRESS"

	// Infrastructure
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT"
	ErrCodeNotFound        ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError carries field -> message pairs for one wizard page.
func NewValidationFailedError(page string, fields map[string]string) *StandardError {
	e := newError(ErrCodeValidationFailed, "Please correct the highlighted fields", fmt.Sprintf("page: %s", page), false)
	e.Metadata = map[string]interface{}{
		"page":   page,
		"fields": fields,
	}
	return e
}

func NewNavigationLockedError(page string) *StandardError {
	return newError(ErrCodeNavigationLocked, "Navigation is disabled while the quote is being processed", fmt.Sprintf("page: %s", page), true)
}

func NewInvalidTransitionError(page, event string) *StandardError {
	return newError(ErrCodeInvalidTransition, "Action not available on this step", fmt.Sprintf("page: %s, event: %s", page, event), false)
}

func NewNotPersistedError() *StandardError {
	return newError(ErrCodeNotPersisted, "Your request has not been saved yet", "", true)
}

func NewSessionSubmittedError() *StandardError {
	return newError(ErrCodeSessionSubmitted, "This quote request was already submitted", "start over to create a new request", false)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Quote session not found or expired", fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewFileNotFoundError(index int) *StandardError {
	return newError(ErrCodeFileNotFound, "Attached file not found", fmt.Sprintf("index: %d", index), false)
}

func NewSuggestionNotFoundError(index int) *StandardError {
	return newError(ErrCodeSuggestionNotFound, "Address suggestion not available", fmt.Sprintf("index: %d", index), false)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid request", details, false)
}

// NewUploadFailedError keeps the remote message in Details so it can be shown to the user.
func NewUploadFailedError(fileName string, err error) *StandardError {
	e := newError(ErrCodeUploadFailed, "File upload failed", fmt.Sprintf("file: %s, error: %s", fileName, err.Error()), true)
	e.cause = err
	return e
}

func NewPersistFailedError(err error) *StandardError {
	e := newError(ErrCodePersistFailed, "Failed to save your quote request", err.Error(), true)
	e.cause = err
	return e
}

func NewPersistInProgressError(key string) *StandardError {
	return newError(ErrCodePersistInProgress, "Quote request is already being saved", fmt.Sprintf("key: %s", key), true)
}

func NewExternalServiceError(service string, err error) *StandardError {
	e := newError(ErrCodeExternalService, "External service error", fmt.Sprintf("service: %s, error: %s", service, err.Error()), true)
	e.cause = err
	return e
}

func NewTimeoutError(service string, err error) *StandardError {
	e := newError(ErrCodeTimeout, "Operation timed out", fmt.Sprintf("service: %s, error: %s", service, err.Error()), true)
	e.cause = err
	return e
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeNotFound, "Resource not found", fmt.Sprintf("service: %s, %s", service, details), false)
}

// CodeOf returns the code of the first StandardError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// Normalize always yields a StandardError; unknown errors become INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	e := newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
	e.cause = err
	return e
}

// IsRetryable reports whether the user may retry the same action.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "UPLOAD") || strings.Contains(codeStr, "PERSIST"):
		return "PIPELINE"
	case strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "NAVIGATION") || strings.Contains(codeStr, "PERSISTED"):
		return "WIZARD"
	case strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "TIMEOUT"):
		return "EXTERNAL"
	default:
		return "OTHER"
	}
}
