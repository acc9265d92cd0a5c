package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chronolog/internal/profile"
	"github.com/hrygo/chronolog/plugin/ai/logparse"
)

func TestNewServiceFromProfile_Disabled(t *testing.T) {
	svc, closeFn, err := NewServiceFromProfile(&profile.Profile{})
	require.NoError(t, err)
	defer closeFn()

	assert.False(t, svc.HasInterpreter())
	decision, err := svc.Route(context.Background(), "log lunch", logparse.RouteContext{})
	require.NoError(t, err)
	assert.Equal(t, logparse.TierPattern, decision.Result.Tier)
}

func TestNewServiceFromProfile_Enabled(t *testing.T) {
	svc, closeFn, err := NewServiceFromProfile(&profile.Profile{
		AIEnabled:        true,
		AILLMProvider:    "ollama",
		AIOllamaBaseURL:  "http://localhost:11434",
		AILLMModel:       "qwen2.5",
		AIMaxConcurrency: 2,
		AICacheTTL:       time.Minute,
	})
	require.NoError(t, err)
	defer closeFn()

	assert.True(t, svc.HasInterpreter())
	assert.NotNil(t, svc.cache)
}

func TestNewServiceFromProfile_Invalid(t *testing.T) {
	_, _, err := NewServiceFromProfile(&profile.Profile{
		AIEnabled:        true,
		AILLMProvider:    "deepseek",
		AIDeepSeekAPIKey: "key",
	})
	assert.Error(t, err)
}
