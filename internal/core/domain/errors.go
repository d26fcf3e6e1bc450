package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "BC-SESS-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionNotFound indicates the requested session was not found.
	ErrSessionNotFound = NewDomainError("BC-SESS-4040", "session not found")

	// ErrSessionExpired indicates the session has expired.
	ErrSessionExpired = NewDomainError("BC-SESS-4041", "session expired")

	// ErrSessionValidation indicates session data validation failed.
	ErrSessionValidation = NewDomainError("BC-SESS-4001", "session validation failed")
)

// ============================================================================
// Concurrency Errors (CONC)
// ============================================================================

var (
	// ErrControllerClosed indicates the concurrency controller is shutting down.
	ErrControllerClosed = NewDomainError("BC-CONC-5030", "concurrency controller closed")

	// ErrAcquireCancelled indicates the caller gave up waiting for a slot.
	ErrAcquireCancelled = NewDomainError("BC-CONC-4990", "acquire cancelled")
)

// ============================================================================
// Shard Errors (SHRD)
// ============================================================================

var (
	// ErrShardUnavailable indicates a shard backend could not be reached.
	ErrShardUnavailable = NewDomainError("BC-SHRD-5030", "shard unavailable")

	// ErrNoActiveShard indicates no shard is available for the operation.
	ErrNoActiveShard = NewDomainError("BC-SHRD-5031", "no active shard")

	// ErrRecordNotFound indicates the record was not found on any shard.
	ErrRecordNotFound = NewDomainError("BC-SHRD-4040", "record not found")

	// ErrStorageError indicates a storage backend error.
	ErrStorageError = NewDomainError("BC-SHRD-5001", "storage error")
)

// ============================================================================
// Configuration Errors (CONF)
// ============================================================================

var (
	// ErrInvalidConfig indicates the configuration failed verification.
	ErrInvalidConfig = NewDomainError("BC-CONF-1000", "invalid configuration")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("BC-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("BC-ARG-1002", "missing required argument")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal error.
	ErrInternalServer = NewDomainError("BC-SYS-5000", "internal error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("BC-SYS-5030", "service unavailable")
)
