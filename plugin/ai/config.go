package ai

import (
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/chronolog/internal/profile"
	"github.com/hrygo/chronolog/plugin/ai/timeout"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM LLMConfig
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string // deepseek, openai, ollama
	Model       string // deepseek-chat
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 512
	Temperature float32 // default: 0
	MaxRetries  int     // default: 3
	Timeout     time.Duration
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	if !cfg.Enabled {
		return cfg
	}

	// Interpreting a log message is extraction, not generation: keep the
	// output short and deterministic.
	cfg.LLM = LLMConfig{
		Provider:    p.AILLMProvider,
		Model:       p.AILLMModel,
		MaxTokens:   512,
		Temperature: 0,
		MaxRetries:  3,
		Timeout:     timeout.LLMRequestTimeout,
	}

	switch p.AILLMProvider {
	case "deepseek":
		cfg.LLM.APIKey = p.AIDeepSeekAPIKey
		cfg.LLM.BaseURL = p.AIDeepSeekBaseURL
	case "openai":
		cfg.LLM.APIKey = p.AIOpenAIAPIKey
		cfg.LLM.BaseURL = p.AIOpenAIBaseURL
	case "ollama":
		cfg.LLM.BaseURL = p.AIOllamaBaseURL
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}

	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}

	return nil
}
