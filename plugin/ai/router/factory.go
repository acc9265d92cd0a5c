package router

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hrygo/chronolog/internal/profile"
	"github.com/hrygo/chronolog/plugin/ai"
	"github.com/hrygo/chronolog/plugin/ai/cache"
)

// NewServiceFromProfile builds the router from configuration. Without AI
// configured the service only runs the pattern tier. The returned close
// function stops the interpretation cache.
func NewServiceFromProfile(p *profile.Profile) (*Service, func(), error) {
	aiConfig := ai.NewConfigFromProfile(p)
	if !aiConfig.Enabled {
		slog.Info("LLM interpreter disabled, tier-2 results are returned to the caller")
		return NewService(Config{}), func() {}, nil
	}
	if err := aiConfig.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid AI configuration")
	}

	llm, err := ai.NewLLMService(&aiConfig.LLM)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create LLM service")
	}

	cacheSvc := cache.NewService[*Interpretation](cache.ServiceConfig{
		Capacity:   1000,
		DefaultTTL: p.AICacheTTL,
	})
	svc := NewService(Config{
		LLMClient:      NewLLMClient(llm),
		Cache:          cacheSvc.LRU,
		CacheTTL:       p.AICacheTTL,
		MaxConcurrency: p.AIMaxConcurrency,
	})
	slog.Info("LLM interpreter enabled",
		"provider", aiConfig.LLM.Provider,
		"model", aiConfig.LLM.Model,
		"max_concurrency", p.AIMaxConcurrency)
	return svc, cacheSvc.Close, nil
}
