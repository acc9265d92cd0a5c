// Package timeout defines centralized timeout constants for AI operations.
package timeout

import "time"

const (
	// LLMRequestTimeout bounds a single HTTP call to the LLM provider.
	LLMRequestTimeout = 30 * time.Second

	// InterpretTimeout bounds one tier-2 interpretation, retries included.
	InterpretTimeout = 45 * time.Second

	// MaxTruncateLength is the maximum length of user input written to logs.
	MaxTruncateLength = 50
)
