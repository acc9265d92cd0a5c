package ai

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// LLMService is the LLM service interface.
type LLMService interface {
	// Chat performs synchronous chat.
	Chat(ctx context.Context, messages []Message) (string, error)
}

type llmService struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	maxRetries  int
	timeout     time.Duration
	// retryBase is the first backoff step; it doubles on every attempt.
	retryBase time.Duration
}

// NewLLMService creates a new LLMService. Every supported provider speaks
// the OpenAI chat-completions protocol.
func NewLLMService(cfg *LLMConfig) (LLMService, error) {
	clientConfig := openai.DefaultConfig(cfg.APIKey)

	switch cfg.Provider {
	case "deepseek", "openai":
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	case "ollama":
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v1"
	default:
		return nil, errors.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	svc := &llmService{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		timeout:     cfg.Timeout,
		retryBase:   time.Second,
	}
	if svc.maxRetries <= 0 {
		svc.maxRetries = 3
	}
	if svc.timeout <= 0 {
		svc.timeout = 30 * time.Second
	}
	return svc, nil
}

func (s *llmService) Chat(ctx context.Context, messages []Message) (string, error) {
	var result string
	err := s.doWithRetry(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		resp, err := s.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       s.model,
			Messages:    convertMessages(messages),
			MaxTokens:   s.maxTokens,
			Temperature: s.temperature,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty chat response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to complete chat")
	}
	return result, nil
}

// doWithRetry executes fn with exponential backoff retry.
func (s *llmService) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == s.maxRetries-1 {
			break
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * s.retryBase
		slog.Debug("LLM request failed, retrying",
			"attempt", attempt+1,
			"wait_time", waitTime,
			"error", err)
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		llmMessages[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		}
	}
	return llmMessages
}

// Helper for creating system prompts
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// Helper for creating user messages
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// FormatMessages builds a system + history + user message list.
func FormatMessages(systemPrompt string, userContent string, history []Message) []Message {
	messages := []Message{}
	if systemPrompt != "" {
		messages = append(messages, SystemPrompt(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userContent))
	return messages
}
