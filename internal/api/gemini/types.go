// Package gemini provides types and an HTTP client for the Google Generative
// Language API (model listing and generateContent) across API versions.
package gemini

import (
	"encoding/json"
	"strings"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
)

// Part is one fragment of a content turn.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Content is a single turn; Role is "user" or "model".
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig bounds generation.
type GenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// GenerateContentRequest is the body of models/{id}:generateContent.
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// UsageMetadata reports token counts.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// GenerateContentResponse is the generateContent reply.
type GenerateContentResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

// Text extracts the answer from the first candidate. A single non-empty
// first part is returned as is; otherwise all non-empty parts are joined
// with a space.
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	parts := r.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	if parts[0].Text != "" {
		return parts[0].Text
	}
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, " ")
}

// Model is one entry of the models listing.
type Model struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

// ModelList is the models listing reply.
type ModelList struct {
	Models        []Model `json:"models"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// ErrorResponse is the Google API error envelope.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError contains error details.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return e.Status + ": " + e.Message
	}
	return e.Message
}

// ToCanonical converts the Google error to a canonical domain error.
func (e *APIError) ToCanonical(httpStatus int) *domain.APIError {
	status := httpStatus
	if status == 0 {
		status = e.Code
	}
	errType, code := mapGeminiStatus(e.Status, status)
	return &domain.APIError{
		Type:       errType,
		Code:       code,
		Message:    e.Message,
		StatusCode: status,
		SourceAPI:  domain.APITypeGemini,
	}
}

func mapGeminiStatus(status string, httpStatus int) (domain.ErrorType, domain.ErrorCode) {
	switch status {
	case "NOT_FOUND":
		return domain.ErrorTypeNotFound, domain.ErrorCodeModelNotFound
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION":
		return domain.ErrorTypeInvalidRequest, ""
	case "UNAUTHENTICATED":
		return domain.ErrorTypeAuthentication, domain.ErrorCodeInvalidAPIKey
	case "PERMISSION_DENIED":
		return domain.ErrorTypePermission, ""
	case "RESOURCE_EXHAUSTED":
		return domain.ErrorTypeRateLimit, domain.ErrorCodeRateLimitExceeded
	case "UNAVAILABLE":
		return domain.ErrorTypeOverloaded, ""
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
