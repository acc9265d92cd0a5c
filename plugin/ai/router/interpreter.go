package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/chronolog/plugin/ai/logparse"
)

// SourceLLM is the time source of entries whose times the LLM resolved.
const SourceLLM logparse.TimeSource = "llm_interpreted"

// InterpretRequest is everything the interpreter sends to the model.
type InterpretRequest struct {
	Result           logparse.RouteResult
	CurrentTime      time.Time
	UTCOffsetMinutes int
	LastEventEndTime *time.Time
}

// LLMInterpreter implements the tier-2 interpretation of tier-2 results.
type LLMInterpreter struct {
	client LLMClient
	config ModelConfig
}

// NewLLMInterpreter creates a new LLM interpreter.
func NewLLMInterpreter(client LLMClient) *LLMInterpreter {
	return &LLMInterpreter{
		client: client,
		config: ModelConfig{
			MaxTokens:   512,
			Temperature: 0,
		},
	}
}

// InterpretationPrompt is the prompt template for tier-2 interpretation.
const InterpretationPrompt = `You turn a user's message into a time-log entry.

Categories:
- prod: work, study, exercise and other productive activities
- nonprod: entertainment, social media, procrastination
- admin: sleep, meals, chores, commuting, rest

Current time (UTC): %s
User UTC offset (minutes): %d
Last logged activity ended at (UTC): %s
Why the rule-based parser gave up: %s
Partial data from the parser: %s

User message: %s

Answer with JSON only, using these fields:
- is_log_request: true if the user wants to record an activity they did
- title: short activity title, first letter capitalised
- category: one of prod, nonprod, admin
- start_time: RFC 3339 UTC start, or null if unknown
- end_time: RFC 3339 UTC end, or null to mean now
- confidence: 0 to 1
- reasoning: one short sentence`

// Interpret asks the model to interpret a tier-2 result.
func (i *LLMInterpreter) Interpret(ctx context.Context, req InterpretRequest) (*Interpretation, error) {
	if i.client == nil {
		return nil, errors.New("LLM client not configured")
	}

	lastEnd := "unknown"
	if req.LastEventEndTime != nil {
		lastEnd = req.LastEventEndTime.UTC().Format(time.RFC3339)
	}
	partial := "none"
	if req.Result.PartialData != nil {
		if raw, err := json.Marshal(req.Result.PartialData); err == nil {
			partial = string(raw)
		}
	}
	prompt := fmt.Sprintf(InterpretationPrompt,
		req.CurrentTime.UTC().Format(time.RFC3339),
		req.UTCOffsetMinutes,
		lastEnd,
		req.Result.Reason,
		partial,
		req.Result.OriginalMessage,
	)

	response, err := i.client.Complete(ctx, prompt, i.config)
	if err != nil {
		return nil, errors.Wrap(err, "LLM interpretation failed")
	}

	interpretation, err := parseInterpretation(response, req.CurrentTime)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse LLM response")
	}
	return interpretation, nil
}

// llmResponse is the expected JSON structure from LLM.
type llmResponse struct {
	IsLogRequest bool    `json:"is_log_request"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

// parseInterpretation parses the model's JSON answer. A missing end means now.
func parseInterpretation(response string, now time.Time) (*Interpretation, error) {
	var resp llmResponse
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &resp); err != nil {
		return nil, err
	}
	if !resp.IsLogRequest {
		return &Interpretation{IsLogRequest: false, Reasoning: resp.Reasoning}, nil
	}

	title := strings.TrimSpace(resp.Title)
	if title == "" {
		return nil, errors.New("log request without a title")
	}
	category := logparse.Category(strings.ToLower(strings.TrimSpace(resp.Category)))
	if !category.Valid() {
		// Same default as the keyword classifier.
		category = logparse.CategoryProd
	}

	start, err := parseInstant(resp.StartTime)
	if err != nil {
		return nil, errors.Wrap(err, "invalid start_time")
	}
	end, err := parseInstant(resp.EndTime)
	if err != nil {
		return nil, errors.Wrap(err, "invalid end_time")
	}
	if end == nil {
		utcNow := now.UTC()
		end = &utcNow
	}

	return &Interpretation{
		IsLogRequest: true,
		Reasoning:    resp.Reasoning,
		Data: &logparse.LogData{
			Title:              title,
			Category:           category,
			CategoryConfidence: confidenceBand(resp.Confidence),
			StartTime:          start,
			EndTime:            end,
			TimeSource:         SourceLLM,
		},
	}, nil
}

func parseInstant(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func confidenceBand(c float64) logparse.Confidence {
	switch {
	case c >= 0.8:
		return logparse.ConfidenceHigh
	case c >= 0.5:
		return logparse.ConfidenceMedium
	default:
		return logparse.ConfidenceLow
	}
}

// stripCodeFence extracts JSON from a markdown code block if present.
func stripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	if !strings.HasPrefix(response, "```") {
		return response
	}
	var jsonLines []string
	inJSON := false
	for _, line := range strings.Split(response, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inJSON = !inJSON
			continue
		}
		if inJSON {
			jsonLines = append(jsonLines, line)
		}
	}
	return strings.Join(jsonLines, "\n")
}
