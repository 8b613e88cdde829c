// Package deepseek provides types and an HTTP client for the DeepSeek
// OpenAI-compatible chat completions API.
package deepseek

import (
	"encoding/json"
	"strings"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
)

// ChatCompletionRequest represents a chat completion request.
type ChatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []ChatCompletionMessage `json:"messages"`
	MaxTokens   int                     `json:"max_tokens,omitempty"`
	Temperature *float32                `json:"temperature,omitempty"`
	Stream      bool                    `json:"stream,omitempty"`
}

// ChatCompletionMessage is a message in the request or response.
type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse represents a chat completion response.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage,omitempty"`
}

// Choice represents a completion choice.
type Choice struct {
	Index        int                   `json:"index"`
	Message      ChatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Text returns the first choice's content.
func (r *ChatCompletionResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError contains error details.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// ToCanonical converts the error to a canonical domain error.
func (e *APIError) ToCanonical(httpStatus int) *domain.APIError {
	errType, code := mapErrorType(e.Type, e.Code, httpStatus)
	return &domain.APIError{
		Type:       errType,
		Code:       code,
		Message:    e.Message,
		StatusCode: httpStatus,
		SourceAPI:  domain.APITypeDeepSeek,
	}
}

func mapErrorType(errType, errCode string, httpStatus int) (domain.ErrorType, domain.ErrorCode) {
	switch errCode {
	case "invalid_api_key":
		return domain.ErrorTypeAuthentication, domain.ErrorCodeInvalidAPIKey
	case "model_not_found":
		return domain.ErrorTypeNotFound, domain.ErrorCodeModelNotFound
	case "rate_limit_exceeded":
		return domain.ErrorTypeRateLimit, domain.ErrorCodeRateLimitExceeded
	}

	switch strings.ToLower(errType) {
	case "authentication_error", "authentication_fails":
		return domain.ErrorTypeAuthentication, domain.ErrorCodeInvalidAPIKey
	case "invalid_request_error":
		return domain.ErrorTypeInvalidRequest, ""
	case "rate_limit_error":
		return domain.ErrorTypeRateLimit, domain.ErrorCodeRateLimitExceeded
	}
	return domain.ErrorTypeForStatus(httpStatus), ""
}

// ParseErrorResponse attempts to parse an error response from JSON.
func ParseErrorResponse(data []byte) (*APIError, error) {
	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		return nil, err
	}
	if errResp.Error == nil {
		return nil, nil
	}
	return errResp.Error, nil
}
