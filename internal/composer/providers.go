package composer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tjfontaine/advisor-gateway/internal/api/deepseek"
	"github.com/tjfontaine/advisor-gateway/internal/api/gemini"
	"github.com/tjfontaine/advisor-gateway/internal/domain"
)

// GeminiContentGenerator is the slice of the Gemini client used here.
type GeminiContentGenerator interface {
	GenerateContent(ctx context.Context, apiVersion, model string, req *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error)
}

// GeminiGenerator asks one fixed Gemini model.
type GeminiGenerator struct {
	client     GeminiContentGenerator
	apiVersion string
	model      string
}

// NewGeminiGenerator creates a generator bound to apiVersion/model.
func NewGeminiGenerator(client GeminiContentGenerator, apiVersion, model string) *GeminiGenerator {
	return &GeminiGenerator{client: client, apiVersion: apiVersion, model: model}
}

func (g *GeminiGenerator) Name() string { return "Gemini" }

func (g *GeminiGenerator) Generate(ctx context.Context, conversation []domain.ChatMessage, systemPrompt string) (string, error) {
	resp, err := g.client.GenerateContent(ctx, g.apiVersion, g.model, gemini.NewChatRequest(conversation, systemPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini %s/%s: %w", g.apiVersion, g.model, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyResponse
	}
	return text, nil
}

// ChatCompleter is the slice of the DeepSeek client used here.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req *deepseek.ChatCompletionRequest) (*deepseek.ChatCompletionResponse, error)
}

// DeepSeekGenerator asks a DeepSeek chat model.
type DeepSeekGenerator struct {
	client ChatCompleter
	model  string
}

// NewDeepSeekGenerator creates a generator for model.
func NewDeepSeekGenerator(client ChatCompleter, model string) *DeepSeekGenerator {
	return &DeepSeekGenerator{client: client, model: model}
}

func (g *DeepSeekGenerator) Name() string { return "DeepSeek" }

// Generate sends the system prompt as a system message ahead of the
// conversation. An invalid key surfaces as domain.ErrProviderUnavailable.
func (g *DeepSeekGenerator) Generate(ctx context.Context, conversation []domain.ChatMessage, systemPrompt string) (string, error) {
	messages := make([]deepseek.ChatCompletionMessage, 0, len(conversation)+1)
	if systemPrompt != "" {
		messages = append(messages, deepseek.ChatCompletionMessage{Role: "system", Content: systemPrompt})
	}
	for _, msg := range conversation {
		messages = append(messages, deepseek.ChatCompletionMessage{Role: string(msg.Role), Content: msg.Content})
	}

	temp := domain.GenerationTemperature
	resp, err := g.client.CreateChatCompletion(ctx, &deepseek.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   domain.MaxOutputTokens,
		Temperature: &temp,
	})
	if err != nil {
		if domain.IsAuthentication(err) {
			return "", fmt.Errorf("deepseek rejected the API key: %w", domain.ErrProviderUnavailable)
		}
		return "", fmt.Errorf("deepseek %s: %w", g.model, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyResponse
	}
	return text, nil
}
