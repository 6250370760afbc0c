// Package errors provides standardized error handling for the matching pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// LLM / generation errors. Classification calls degrade to the heuristic
	// classifier and never surface these to the caller; capsule generation
	// propagates them because there is no safe text fallback.
	ErrCodeLLMFailure        ErrorCode = "LLM_FAILURE"
	ErrCodeLLMTimeout        ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMUnparsable     ErrorCode = "LLM_UNPARSABLE_OUTPUT"
	ErrCodeEmbeddingFailed   ErrorCode = "EMBEDDING_FAILED"
	ErrCodeCapsuleGeneration ErrorCode = "CAPSULE_GENERATION_FAILED"

	// Non-fatal validation findings, logged and corrected in place.
	ErrCodeValidationViolation ErrorCode = "VALIDATION_VIOLATION"

	// Persistence errors are captured per item and aggregated into counts.
	ErrCodePersistence        ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeVectorUpsertFailed ErrorCode = "VECTOR_UPSERT_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInvalidProfile         ErrorCode = "INVALID_PROFILE"
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
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// CodeOf extracts the ErrorCode from err, or empty when err is not a StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsRetryable reports whether err carries a retryable StandardError.
func IsRetryable(err error) bool {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewLLMFailureError creates a retryable generation-call error.
func NewLLMFailureError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMFailure,
		Message:   "Text generation call failed",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewLLMTimeoutError creates a retryable generation-timeout error.
func NewLLMTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "Text generation call timed out",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMUnparsableError creates a non-retryable error for malformed model output.
func NewLLMUnparsableError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMUnparsable,
		Message:   "Text generation output could not be parsed",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewEmbeddingFailedError creates a retryable embedding-call error.
func NewEmbeddingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingFailed,
		Message:   "Embedding call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCapsuleGenerationError creates an error for capsule authoring failures.
// Unlike classification there is no deterministic fallback, so this propagates.
func NewCapsuleGenerationError(section string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCapsuleGeneration,
		Message:   "Capsule generation failed",
		Details:   fmt.Sprintf("section: %s, error: %v", section, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewValidationViolationError creates a non-retryable, non-fatal validation finding.
func NewValidationViolationError(violations []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationViolation,
		Message:   "Capsule text violated grounding rules",
		Retryable: false,
		Metadata:  map[string]interface{}{"violations": violations},
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceError creates a retryable per-item persistence error.
func NewPersistenceError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistence,
		Message:   "Persistence operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewVectorUpsertFailedError creates a retryable vector-store error.
func NewVectorUpsertFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeVectorUpsertFailed,
		Message:   "Vector store upsert failed",
		Details:   fmt.Sprintf("key: %s, error: %v", key, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification send failed",
		Details:   fmt.Sprintf("channel: %s, error: %v", channel, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInvalidProfileError creates a non-retryable boundary-normalization error.
func NewInvalidProfileError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidProfile,
		Message:   "Profile record could not be normalized",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
