// Package errors provides the structured error type shared by the stores, the HTTP API
// and the job workers, plus its mapping onto BPMN errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode is a stable, machine-readable error identifier.
type ErrorCode string

const (
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeCatalogQueryFailed ErrorCode = "CATALOG_QUERY_FAILED"

	ErrCodeStorageReadFailed    ErrorCode = "STORAGE_READ_FAILED"
	ErrCodeStorageWriteFailed   ErrorCode = "STORAGE_WRITE_FAILED"
	ErrCodePersistedDataCorrupt ErrorCode = "PERSISTED_DATA_CORRUPT"

	ErrCodeInvalidCategory ErrorCode = "INVALID_NOTIFICATION_CATEGORY"
	ErrCodeInvalidAction   ErrorCode = "INVALID_ACTION"

	ErrCodeContactValidationFailed ErrorCode = "CONTACT_VALIDATION_FAILED"
	ErrCodeContactSubmitFailed     ErrorCode = "CONTACT_SUBMIT_FAILED"
	ErrCodeContactTimeout          ErrorCode = "CONTACT_TIMEOUT"
	ErrCodeContactInProgress       ErrorCode = "CONTACT_IN_PROGRESS"

	ErrCodeAssistantUnavailable ErrorCode = "ASSISTANT_UNAVAILABLE"
	ErrCodeBrokerUnavailable    ErrorCode = "BROKER_UNAVAILABLE"

	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeParseError            ErrorCode = "PARSE_ERROR"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError is a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
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

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError is the form thrown back to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the process variables set alongside a failed or thrown job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewCatalogUnavailableError is returned when no product source can be reached.
func NewCatalogUnavailableError(source string, err error) *StandardError {
	return newError(ErrCodeCatalogUnavailable, "Catalog source unavailable: "+source, detailsOf(err), true, err)
}

func NewCatalogQueryFailedError(source string, err error) *StandardError {
	return newError(ErrCodeCatalogQueryFailed, "Catalog query failed: "+source, detailsOf(err), true, err)
}

func NewStorageReadFailedError(key string, err error) *StandardError {
	return newError(ErrCodeStorageReadFailed, "Failed to read key "+key, detailsOf(err), true, err).
		WithMetadata("key", key)
}

// NewStorageWriteFailedError reports a persistence failure. The in-memory change that
// triggered the write has already been applied.
func NewStorageWriteFailedError(key string, err error) *StandardError {
	return newError(ErrCodeStorageWriteFailed, "Failed to persist key "+key, detailsOf(err), true, err).
		WithMetadata("key", key)
}

func NewPersistedDataCorruptError(key string, err error) *StandardError {
	return newError(ErrCodePersistedDataCorrupt, "Persisted data is malformed for key "+key, detailsOf(err), false, err).
		WithMetadata("key", key)
}

func NewInvalidCategoryError(category string) *StandardError {
	return newError(ErrCodeInvalidCategory, "Unknown notification category", category, false, nil)
}

func NewInvalidActionError(action string) *StandardError {
	return newError(ErrCodeInvalidAction, "Unsupported action", action, false, nil)
}

func NewContactValidationFailedError(details string) *StandardError {
	return newError(ErrCodeContactValidationFailed, "Contact form is invalid", details, false, nil)
}

// NewContactSubmitFailedError is never retried automatically; the user resubmits.
func NewContactSubmitFailedError(err error) *StandardError {
	return newError(ErrCodeContactSubmitFailed, "Contact submission failed", detailsOf(err), false, err)
}

func NewContactTimeoutError(err error) *StandardError {
	return newError(ErrCodeContactTimeout, "Contact endpoint timed out", detailsOf(err), false, err)
}

func NewContactInProgressError(email string) *StandardError {
	return newError(ErrCodeContactInProgress, "A submission from this address is already in progress", email, false, nil)
}

func NewAssistantUnavailableError(details string) *StandardError {
	return newError(ErrCodeAssistantUnavailable, "Assistant unavailable", details, false, nil)
}

// NewBrokerUnavailableError wraps a failed call to the Zeebe gateway.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerUnavailable, "Workflow broker unavailable: "+operation, detailsOf(err), true, err)
}

func NewInputValidationError(details string) *StandardError {
	return newError(ErrCodeInputValidationFailed, "Input validation failed", details, false, nil)
}

func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Failed to parse input", detailsOf(err), false, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", detailsOf(err), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// AsStandardError unwraps err to a *StandardError, wrapping unknown errors as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// GetRetryCount returns how many job retries a code is worth.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogUnavailable,
		ErrCodeCatalogQueryFailed,
		ErrCodeStorageReadFailed,
		ErrCodeStorageWriteFailed,
		ErrCodeBrokerUnavailable:
		return 3
	case ErrCodeAssistantUnavailable:
		return 1
	default:
		// Business and validation errors, and contact failures, which must not retry.
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.HasPrefix(codeStr, "STORAGE") || strings.HasPrefix(codeStr, "PERSISTED"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.HasPrefix(codeStr, "CONTACT"):
		return "CONTACT"
	case strings.HasPrefix(codeStr, "ASSISTANT"):
		return "ASSISTANT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || codeStr == string(ErrCodeParseError):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
