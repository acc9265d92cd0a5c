package router

import (
	"context"

	"github.com/hrygo/chronolog/plugin/ai"
)

// chatClient adapts an ai.LLMService to LLMClient.
type chatClient struct {
	llm ai.LLMService
}

// NewLLMClient wraps svc so the interpreter can call it.
func NewLLMClient(svc ai.LLMService) LLMClient {
	return &chatClient{llm: svc}
}

// Complete ignores config: the service was built with its own model settings.
func (c *chatClient) Complete(ctx context.Context, prompt string, _ ModelConfig) (string, error) {
	return c.llm.Chat(ctx, ai.FormatMessages("You are a precise time-tracking assistant. Reply with JSON only.", prompt, nil))
}
