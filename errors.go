package restclient

import (
	"errors"
	"fmt"
	"time"
)

// ClientError represents different types of REST client errors
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	TransportError  ErrorType = "transport"
	TimeoutError    ErrorType = "timeout"
	StatusError     ErrorType = "status"
	ParseError      ErrorType = "parse"
	HookError       ErrorType = "hook"
	ValidationError ErrorType = "validation"
)

// transportError represents connection-level failures
type transportError struct {
	message string
	wrapped error
}

func (e *transportError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("transport error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("transport error: %s", e.message)
}

func (e *transportError) Type() ErrorType {
	return TransportError
}

func (e *transportError) Unwrap() error {
	return e.wrapped
}

// timeoutError represents deadline-related failures
type timeoutError struct {
	message string
	timeout time.Duration
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType {
	return TimeoutError
}

func (e *timeoutError) Timeout() time.Duration {
	return e.timeout
}

// statusError represents non-success HTTP responses
type statusError struct {
	message    string
	statusCode int
	body       []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status error: %s (status: %d)", e.message, e.statusCode)
}

func (e *statusError) Type() ErrorType {
	return StatusError
}

func (e *statusError) StatusCode() int {
	return e.statusCode
}

func (e *statusError) Body() []byte {
	return e.body
}

// parseError represents response bodies that could not be decoded
type parseError struct {
	message     string
	contentType string
	wrapped     error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("parse error: %s (content-type: %s): %v", e.message, e.contentType, e.wrapped)
}

func (e *parseError) Type() ErrorType {
	return ParseError
}

func (e *parseError) ContentType() string {
	return e.contentType
}

func (e *parseError) Unwrap() error {
	return e.wrapped
}

// hookError represents observer hook failures
type hookError struct {
	message string
	wrapped error
	stage   string
}

func (e *hookError) Error() string {
	return fmt.Sprintf("hook error: %s (stage: %s): %v", e.message, e.stage, e.wrapped)
}

func (e *hookError) Type() ErrorType {
	return HookError
}

func (e *hookError) Unwrap() error {
	return e.wrapped
}

// validationError represents request validation errors
type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType {
	return ValidationError
}

// NewTransportError creates a new transport error
func NewTransportError(message string, wrapped error) ClientError {
	return &transportError{
		message: message,
		wrapped: wrapped,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, timeout time.Duration) ClientError {
	return &timeoutError{
		message: message,
		timeout: timeout,
	}
}

// NewStatusError creates a new status error
func NewStatusError(message string, statusCode int, body []byte) ClientError {
	return &statusError{
		message:    message,
		statusCode: statusCode,
		body:       body,
	}
}

// NewParseError creates a new parse error
func NewParseError(message, contentType string, wrapped error) ClientError {
	return &parseError{
		message:     message,
		contentType: contentType,
		wrapped:     wrapped,
	}
}

// NewHookError creates a new hook error
func NewHookError(message, stage string, wrapped error) ClientError {
	return &hookError{
		message: message,
		wrapped: wrapped,
		stage:   stage,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{
		message: message,
		field:   field,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsStatusCode checks if an error is a status error with a specific status code
func IsStatusCode(err error, statusCode int) bool {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode() == statusCode
	}
	return false
}

// StatusCodeFromError extracts the status code from a status error, or 0 when
// the error is not one.
func StatusCodeFromError(err error) int {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode()
	}
	return 0
}

// IsSuccessStatus checks if a status code represents success (2xx or 3xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 400
}
