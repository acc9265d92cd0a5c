// Package router routes activity-logging messages: the deterministic pattern
// tier first, an LLM interpreter only for what the patterns hand over.
package router

import (
	"context"

	"github.com/hrygo/chronolog/plugin/ai/logparse"
)

// RouterService defines the activity-logging routing service interface.
type RouterService interface {
	// Route runs the pattern tier and, for tier-2 results, the LLM interpreter
	// when one is configured. The returned Decision is never nil; a non-nil
	// error reports an interpreter failure, in which case the Decision still
	// carries the tier-2 payload.
	Route(ctx context.Context, message string, rc logparse.RouteContext) (*Decision, error)
}

// LLMClient defines the interface for LLM API calls.
type LLMClient interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, prompt string, config ModelConfig) (string, error)
}

// ModelConfig represents the per-call model settings.
type ModelConfig struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

// Decision is the outcome of routing one message.
type Decision struct {
	Result logparse.RouteResult
	// Interpretation is set when a tier-2 result was interpreted by the LLM.
	Interpretation *Interpretation
	// Cached reports whether Interpretation came from the cache.
	Cached bool
}

// Interpretation is the LLM's reading of a message the patterns could not parse.
type Interpretation struct {
	IsLogRequest bool              `json:"isLogRequest"`
	Data         *logparse.LogData `json:"data,omitempty"`
	Reasoning    string            `json:"reasoning,omitempty"`
}
