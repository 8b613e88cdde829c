package gemini

import "github.com/tjfontaine/advisor-gateway/internal/domain"

// NewChatRequest converts a conversation into a generateContent request. The
// system prompt is sent as a leading user turn and assistant turns become
// "model" turns.
func NewChatRequest(conversation []domain.ChatMessage, systemPrompt string) *GenerateContentRequest {
	contents := make([]Content, 0, len(conversation)+1)
	if systemPrompt != "" {
		contents = append(contents, Content{Role: "user", Parts: []Part{{Text: systemPrompt}}})
	}
	for _, msg := range conversation {
		role := "user"
		if msg.Role == domain.RoleAssistant {
			role = "model"
		}
		contents = append(contents, Content{Role: role, Parts: []Part{{Text: msg.Content}}})
	}

	temp := domain.GenerationTemperature
	return &GenerateContentRequest{
		Contents: contents,
		GenerationConfig: &GenerationConfig{
			Temperature:     &temp,
			MaxOutputTokens: domain.MaxOutputTokens,
		},
	}
}
