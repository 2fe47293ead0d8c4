package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers and workers MUST use these constants
// instead of hardcoded strings.
const (
	// Validation (400) -- raised synchronously at construction/mutation time.
	ErrCodeValidationInvalidToken    ErrorCode = "validation_invalid_push_token"
	ErrCodeValidationInvalidMessage  ErrorCode = "validation_invalid_message"
	ErrCodeValidationEmptyBatch      ErrorCode = "validation_empty_batch"
	ErrCodeValidationMissingField    ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidJSON     ErrorCode = "validation_invalid_json"
	ErrCodeValidationInvalidArgument ErrorCode = "validation_invalid_argument"

	// Caller misconfiguration (400) -- "you forgot to configure X", as
	// opposed to a relay-side failure.
	ErrCodeMisconfiguredRecipients ErrorCode = "misconfigured_recipient_source"
	ErrCodeMisconfiguredMessage    ErrorCode = "misconfigured_message_source"

	// Upstream (502) -- the relay rejected the batch or could not be reached.
	ErrCodeUpstreamExpoFatal       ErrorCode = "upstream_expo_fatal_response"
	ErrCodeUpstreamExpoUnavailable ErrorCode = "upstream_expo_unavailable"

	// Internal (500)
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
	ErrCodeInternalStore      ErrorCode = "internal_store_error"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"), strings.HasPrefix(s, "misconfigured_"):
		return http.StatusBadRequest // 400
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

// AppError is the standard application error type. All domain and handler
// errors are expressed as AppError to enable consistent error formatting,
// HTTP status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details
// that are safe to expose to API clients (e.g. per-field validation errors).
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}
