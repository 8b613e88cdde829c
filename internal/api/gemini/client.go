package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	// maxErrorBody caps how much of an error body is kept for diagnostics.
	maxErrorBody = 2048
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (without the version segment).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client talks to every version of the Generative Language API with one key.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Gemini API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListModels lists the models served on one API version.
func (c *Client) ListModels(ctx context.Context, apiVersion string) (*ModelList, error) {
	endpoint := fmt.Sprintf("%s/%s/models", c.baseURL, url.PathEscape(apiVersion))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result ModelList
	if err := c.do(httpReq, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateContent runs one non-streaming generation against apiVersion/model.
func (c *Client) GenerateContent(ctx context.Context, apiVersion, model string, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/models/%s:generateContent",
		c.baseURL, url.PathEscape(apiVersion), url.PathEscape(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result GenerateContentResponse
	if err := c.do(httpReq, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(httpReq *http.Request, out any) error {
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if apiErr, err := ParseErrorResponse(respBody); err == nil && apiErr != nil {
			return apiErr.ToCanonical(resp.StatusCode)
		}
		return domain.NewAPIError(domain.ErrorTypeForStatus(resp.StatusCode), truncate(string(respBody))).
			WithStatusCode(resp.StatusCode).
			WithSourceAPI(domain.APITypeGemini)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("User-Agent", "advisor-gateway/1.0")
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	n := maxErrorBody
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
