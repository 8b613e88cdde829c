// Package tokens keeps conversations inside a prompt token budget.
package tokens

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
)

// Chat overhead per message: 3 framing tokens plus 1 for the role, and 3
// more to prime the reply.
const (
	tokensPerMessage = 3
	tokensPerRole    = 1
	replyPriming     = 3
)

// Counter counts tokens with the cl100k_base encoding. Gemini and DeepSeek
// tokenize differently; cl100k is close enough to budget prompt size.
type Counter struct {
	codec tokenizer.Codec
}

// NewCounter loads the encoding.
func NewCounter() (*Counter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}
	return &Counter{codec: codec}, nil
}

// CountText counts tokens in text. Encoding failures fall back to a
// four-characters-per-token estimate.
func (c *Counter) CountText(text string) int {
	if text == "" {
		return 0
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(ids)
}

func (c *Counter) countMessage(msg domain.ChatMessage) int {
	return tokensPerMessage + tokensPerRole + c.CountText(msg.Content)
}

// CountConversation counts the system prompt and every message.
func (c *Counter) CountConversation(systemPrompt string, conversation []domain.ChatMessage) int {
	total := replyPriming
	if systemPrompt != "" {
		total += tokensPerMessage + tokensPerRole + c.CountText(systemPrompt)
	}
	for _, msg := range conversation {
		total += c.countMessage(msg)
	}
	return total
}

// Trim drops the oldest messages until the conversation fits budget. The
// last message is always kept. budget <= 0 disables trimming. The input
// slice is never modified.
func (c *Counter) Trim(systemPrompt string, conversation []domain.ChatMessage, budget int) []domain.ChatMessage {
	if budget <= 0 || len(conversation) == 0 {
		return conversation
	}

	total := c.CountConversation(systemPrompt, conversation)
	start := 0
	for total > budget && start < len(conversation)-1 {
		total -= c.countMessage(conversation[start])
		start++
	}
	if start == 0 {
		return conversation
	}
	return append([]domain.ChatMessage(nil), conversation[start:]...)
}
