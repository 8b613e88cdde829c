package sarvam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
)

const (
	defaultBaseURL = "https://api.sarvam.ai"

	defaultTranslateModel = "mayura:v1"
	defaultSpeakerGender  = "Male"

	defaultTTSModel   = "bulbul:v1"
	defaultSampleRate = 8000
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
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

// Client is an HTTP client for the Sarvam API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Sarvam client. apiKey is required; there is no default.
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

// Translate translates req.Input and returns the translated text. Unset
// optional fields are filled with the service defaults used by the app.
func (c *Client) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	if req.SpeakerGender == "" {
		req.SpeakerGender = defaultSpeakerGender
	}
	if req.Mode == "" {
		req.Mode = ModeFormal
	}
	if req.Model == "" {
		req.Model = defaultTranslateModel
	}
	if req.EnablePreprocessing == nil {
		req.EnablePreprocessing = boolPtr(true)
	}

	var resp TranslateResponse
	if err := c.post(ctx, "/translate", req, &resp); err != nil {
		return "", err
	}
	return resp.TranslatedText, nil
}

// TextToSpeech synthesizes each input and returns base64 audio clips.
func (c *Client) TextToSpeech(ctx context.Context, req TTSRequest) ([]string, error) {
	if req.Pitch == nil {
		req.Pitch = float64Ptr(0)
	}
	if req.Pace == 0 {
		req.Pace = 1.0
	}
	if req.Loudness == 0 {
		req.Loudness = 1.0
	}
	if req.SpeechSampleRate == 0 {
		req.SpeechSampleRate = defaultSampleRate
	}
	if req.EnablePreprocessing == nil {
		req.EnablePreprocessing = boolPtr(true)
	}
	if req.Model == "" {
		req.Model = defaultTTSModel
	}

	var resp TTSResponse
	if err := c.post(ctx, "/text-to-speech", req, &resp); err != nil {
		return nil, err
	}
	return resp.Audios, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("API-Subscription-Key", c.apiKey)

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
		apiErr := domain.NewAPIError(domain.ErrorTypeForStatus(resp.StatusCode), string(respBody)).
			WithStatusCode(resp.StatusCode).
			WithSourceAPI(domain.APITypeSarvam)
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != nil {
			apiErr.Message = errResp.Error.Message
			if errResp.Error.Code != "" {
				apiErr = apiErr.WithCode(domain.ErrorCode(errResp.Error.Code))
			}
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

func float64Ptr(f float64) *float64 { return &f }
