package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeInternal           ErrorType = "internal"
	ErrorTypeNetwork            ErrorType = "network"
	ErrorTypeFetch              ErrorType = "fetch"
	ErrorTypeCatalogUnavailable ErrorType = "catalog_unavailable"
	ErrorTypeMalformedPayload   ErrorType = "malformed_payload"
	ErrorTypeDecryption         ErrorType = "decryption"
	ErrorTypeRender             ErrorType = "render"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Details:    detail,
		StatusCode: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewNetworkError creates a transport-level failure (connection refused,
// DNS, timeout) as opposed to an HTTP-level fetch failure
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// NewFetchError creates an error for a non-success HTTP response while
// fetching content. The upstream status is carried in StatusCode.
func NewFetchError(message string, status int) *AppError {
	return &AppError{
		Type:       ErrorTypeFetch,
		Message:    message,
		Details:    http.StatusText(status),
		StatusCode: status,
	}
}

// NewCatalogUnavailableError creates the degraded-catalog error
func NewCatalogUnavailableError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeCatalogUnavailable,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// NewMalformedPayloadError creates an error for ciphertext payloads that
// violate the salt/iv framing contract
func NewMalformedPayloadError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeMalformedPayload,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewDecryptionError creates an error for cryptographic failures (bad
// padding, wrong key)
func NewDecryptionError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDecryption,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewRenderError creates an error for failures inside the rendering backend
func NewRenderError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeRender,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
