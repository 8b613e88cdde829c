// Package domain provides the gateway's canonical types and error values.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of an upstream API error.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or invalid request.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeAuthentication indicates an authentication failure.
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypePermission indicates a permission/authorization failure.
	ErrorTypePermission ErrorType = "permission"

	// ErrorTypeNotFound indicates a resource (usually a model) was not found.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeRateLimit indicates rate limiting was triggered.
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeOverloaded indicates the service is overloaded.
	ErrorTypeOverloaded ErrorType = "overloaded"

	// ErrorTypeServer indicates an internal server error.
	ErrorTypeServer ErrorType = "server"
)

// ErrorCode provides additional specificity beyond the error type.
type ErrorCode string

const (
	ErrorCodeInvalidAPIKey     ErrorCode = "invalid_api_key"
	ErrorCodeModelNotFound     ErrorCode = "model_not_found"
	ErrorCodeRateLimitExceeded ErrorCode = "rate_limit_exceeded"
)

// APIType names the upstream an error came from.
type APIType string

const (
	APITypeGemini   APIType = "gemini"
	APITypeDeepSeek APIType = "deepseek"
	APITypeSarvam   APIType = "sarvam"
)

// APIError is a canonical upstream HTTP error. Clients build it from the
// provider's error body so callers can classify failures without parsing text.
type APIError struct {
	// Type is the category of error
	Type ErrorType `json:"type"`

	// Code is an optional specific error code
	Code ErrorCode `json:"code,omitempty"`

	// Message is the upstream's message; it never leaves server-side logs
	Message string `json:"message"`

	// StatusCode is the HTTP status the upstream returned
	StatusCode int `json:"-"`

	// SourceAPI indicates which API the error originated from
	SourceAPI APIType `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	prefix := string(e.Type)
	if e.SourceAPI != "" {
		prefix = string(e.SourceAPI) + " " + prefix
	}
	if e.StatusCode != 0 {
		prefix = fmt.Sprintf("%s (status %d)", prefix, e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", prefix, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// HTTPStatusCode returns the status code for this error.
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypePermission:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeOverloaded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ModelUnavailable reports whether the error means the model does not exist
// or cannot be served on the surface that was asked.
func (e *APIError) ModelUnavailable() bool {
	switch e.HTTPStatusCode() {
	case http.StatusNotFound, http.StatusBadRequest, http.StatusForbidden:
		return true
	}
	return false
}

// NewAPIError creates a new API error.
func NewAPIError(errType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errType,
		Message: message,
	}
}

// WithCode adds an error code to the error.
func (e *APIError) WithCode(code ErrorCode) *APIError {
	e.Code = code
	return e
}

// WithStatusCode sets the HTTP status code.
func (e *APIError) WithStatusCode(code int) *APIError {
	e.StatusCode = code
	return e
}

// WithSourceAPI sets the source API type.
func (e *APIError) WithSourceAPI(api APIType) *APIError {
	e.SourceAPI = api
	return e
}

// ErrorTypeForStatus maps an HTTP status to an error type for upstreams whose
// error bodies carry no usable type.
func ErrorTypeForStatus(status int) ErrorType {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrorTypeInvalidRequest
	case http.StatusUnauthorized:
		return ErrorTypeAuthentication
	case http.StatusForbidden:
		return ErrorTypePermission
	case http.StatusNotFound:
		return ErrorTypeNotFound
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case http.StatusServiceUnavailable:
		return ErrorTypeOverloaded
	default:
		return ErrorTypeServer
	}
}

// IsAuthentication reports whether err is an upstream 401.
func IsAuthentication(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode() == http.StatusUnauthorized
	}
	return false
}

var (
	// ErrAllCandidatesExhausted is returned when no model candidate produced text.
	ErrAllCandidatesExhausted = errors.New("all model candidates exhausted")

	// ErrProviderUnavailable marks a provider slot that produced no answer.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrEmptyResponse is returned by generators that got a 200 with no text.
	ErrEmptyResponse = errors.New("empty response")
)

// AllCandidatesExhaustedError carries the full attempt sequence of a failed probe.
type AllCandidatesExhaustedError struct {
	Attempts []ProbeAttempt
	Last     error
}

func (e *AllCandidatesExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%s after %d attempts", ErrAllCandidatesExhausted, len(e.Attempts))
	}
	return fmt.Sprintf("%s after %d attempts, last error: %v", ErrAllCandidatesExhausted, len(e.Attempts), e.Last)
}

func (e *AllCandidatesExhaustedError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrAllCandidatesExhausted}
	}
	return []error{ErrAllCandidatesExhausted, e.Last}
}
