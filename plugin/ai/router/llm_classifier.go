package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/ragcontext/plugin/ai"
	"github.com/hrygo/ragcontext/plugin/ai/timeout"
)

// ClassificationPrompt instructs the model to label history-clearing requests.
const ClassificationPrompt = "You are a helpful assistant. If the user asks to clear chat history, respond with 'clear history.' For all other requests, return 'uncategorized.'."

// LLMClassifier implements Layer 2 LLM-based intent classification.
type LLMClassifier struct {
	client ai.LLMService
}

// NewLLMClassifier creates a new LLM classifier.
func NewLLMClassifier(client ai.LLMService) *LLMClassifier {
	return &LLMClassifier{client: client}
}

// Classify asks the model for a label. Any label other than
// "clear history" means IntentAnswer.
func (c *LLMClassifier) Classify(ctx context.Context, input string) (Intent, error) {
	if c.client == nil {
		return IntentAnswer, fmt.Errorf("LLM client not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.ClassificationTimeout)
	defer cancel()

	response, err := c.client.Chat(ctx, []ai.Message{
		ai.SystemPrompt(ClassificationPrompt),
		ai.UserMessage(input),
	})
	if err != nil {
		return IntentAnswer, fmt.Errorf("LLM classification failed: %w", err)
	}
	return parseLabel(response), nil
}

func parseLabel(response string) Intent {
	if strings.Contains(strings.ToLower(response), "clear history") {
		return IntentClearHistory
	}
	return IntentAnswer
}
