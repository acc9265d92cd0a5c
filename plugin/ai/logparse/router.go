package logparse

import (
	"encoding/json"
	"log/slog"
	"time"
)

// RouteMethod names the tier that handles a message.
type RouteMethod string

const (
	MethodPattern RouteMethod = "pattern"
	MethodLLM     RouteMethod = "llm"
)

const (
	TierPattern = 1
	TierLLM     = 2
)

// RouteContext is the optional context of RouteRequest.
type RouteContext struct {
	LastEventEndTime *time.Time
	// CurrentTime defaults to the wall clock, read once per call.
	CurrentTime *time.Time
	// UTCOffsetMinutes defaults to UTC.
	UTCOffsetMinutes *int
}

// RouteResult is the single routing decision for a message. Tier 1 carries
// a successful Outcome; tier 2 carries the fallback payload for the LLM
// interpreter.
type RouteResult struct {
	Tier   int
	Method RouteMethod

	// Tier 1.
	Outcome                ParseOutcome
	SuggestLLMVerification bool

	// Tier 2.
	Reason          FallbackReason
	OriginalMessage string
	PartialData     *LogData
}

// IsFallback reports whether the message has to go to the LLM tier.
func (r RouteResult) IsFallback() bool {
	return r.Tier == TierLLM
}

type patternResultJSON struct {
	Tier                   int         `json:"tier"`
	Method                 RouteMethod `json:"method"`
	Success                bool        `json:"success"`
	Action                 string      `json:"action"`
	Data                   *LogData    `json:"data"`
	SuggestLLMVerification bool        `json:"suggestLLMVerification,omitempty"`
}

type llmResultJSON struct {
	Tier            int            `json:"tier"`
	Method          RouteMethod    `json:"method"`
	Reason          FallbackReason `json:"reason"`
	OriginalMessage string         `json:"originalMessage"`
	PartialData     *LogData       `json:"partialData"`
}

// MarshalJSON renders the tier-specific wire shape.
func (r RouteResult) MarshalJSON() ([]byte, error) {
	if r.Tier == TierLLM {
		return json.Marshal(llmResultJSON{
			Tier:            r.Tier,
			Method:          r.Method,
			Reason:          r.Reason,
			OriginalMessage: r.OriginalMessage,
			PartialData:     r.PartialData,
		})
	}
	return json.Marshal(patternResultJSON{
		Tier:                   r.Tier,
		Method:                 r.Method,
		Success:                r.Outcome.Success,
		Action:                 "log",
		Data:                   r.Outcome.Data,
		SuggestLLMVerification: r.SuggestLLMVerification,
	})
}

// ParseLogRequest runs the pattern tier. Classification and extraction
// failures are normal outcomes that set NeedsLLM; later stages are skipped.
func ParseLogRequest(req LogRequest) ParseOutcome {
	if !IsLogRequest(req.Message) {
		return ParseOutcome{NeedsLLM: true, Reason: ReasonNotLogRequest}
	}

	title, ok := ExtractActivity(req.Message)
	if !ok {
		return ParseOutcome{NeedsLLM: true, Reason: ReasonNoActivityFound}
	}

	offset := 0
	if req.UTCOffsetMinutes != nil {
		offset = *req.UTCOffsetMinutes
	}
	info := ExtractTimeInfo(req.Message, TimeContext{
		LastEventEndTime: req.LastEventEndTime,
		CurrentTime:      req.CurrentTime,
		UTCOffsetMinutes: offset,
	})
	if info.StartTime != nil && info.EndTime != nil && !info.StartTime.Before(*info.EndTime) {
		slog.Warn("resolved start is not before end",
			"start", info.StartTime.Format(time.RFC3339),
			"end", info.EndTime.Format(time.RFC3339),
			"source", info.Source)
	}

	score := InferCategory(title)
	return ParseOutcome{
		Success: true,
		Data: &LogData{
			Title:              title,
			Category:           score.Category,
			CategoryConfidence: score.Confidence,
			StartTime:          info.StartTime,
			EndTime:            info.EndTime,
			TimeSource:         info.Source,
		},
	}
}

// RouteRequest decides whether message can be logged by the pattern tier
// or must be handed to the LLM interpreter.
func RouteRequest(message string, rc RouteContext) RouteResult {
	now := time.Now().UTC()
	if rc.CurrentTime != nil {
		now = rc.CurrentTime.UTC()
	}

	outcome := ParseLogRequest(LogRequest{
		Message:          message,
		LastEventEndTime: rc.LastEventEndTime,
		CurrentTime:      now,
		UTCOffsetMinutes: rc.UTCOffsetMinutes,
	})
	if outcome.NeedsLLM {
		return RouteResult{
			Tier:            TierLLM,
			Method:          MethodLLM,
			Reason:          outcome.Reason,
			OriginalMessage: message,
			PartialData:     outcome.Data,
		}
	}

	return RouteResult{
		Tier:                   TierPattern,
		Method:                 MethodPattern,
		Outcome:                outcome,
		SuggestLLMVerification: outcome.Data.CategoryConfidence == ConfidenceLow,
	}
}
