package models

import (
	"errors"
	"fmt"
)

// Error codes used in handler responses and internal error handling.
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamStatus      = "UPSTREAM_STATUS"
	ErrCodeUpstreamTimeout     = "UPSTREAM_TIMEOUT"
	ErrCodeInvalidResponse     = "INVALID_RESPONSE"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeDuplicateSubmission = "DUPLICATE_SUBMISSION"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// APIError is the internal error type carrying an error code.
// StatusCode is the upstream HTTP status when one was received.
type APIError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error // wrapped original error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError.
func NewAPIError(code, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, Err: err}
}

// AsAPIError unwraps err into an APIError, wrapping unknown errors as
// ErrCodeInternal.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewAPIError(ErrCodeInternal, err.Error(), err)
}

// HasCode reports whether err is an APIError with the given code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
