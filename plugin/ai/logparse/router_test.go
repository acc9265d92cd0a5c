package logparse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteRequest_NotLogRequest(t *testing.T) {
	result := RouteRequest("how was my day yesterday?", RouteContext{CurrentTime: ptr(testNow)})

	assert.True(t, result.IsFallback())
	assert.Equal(t, TierLLM, result.Tier)
	assert.Equal(t, MethodLLM, result.Method)
	assert.Equal(t, ReasonNotLogRequest, result.Reason)
	assert.Equal(t, "how was my day yesterday?", result.OriginalMessage)
	assert.Nil(t, result.PartialData)
}

func TestRouteRequest_NoActivity(t *testing.T) {
	result := RouteRequest("log 9am to 10am", RouteContext{CurrentTime: ptr(testNow)})

	assert.Equal(t, TierLLM, result.Tier)
	assert.Equal(t, ReasonNoActivityFound, result.Reason)
	assert.Equal(t, "log 9am to 10am", result.OriginalMessage)
}

func TestRouteRequest_LogLunch(t *testing.T) {
	result := RouteRequest("log lunch", RouteContext{})

	require.Equal(t, TierPattern, result.Tier)
	assert.Equal(t, MethodPattern, result.Method)
	assert.True(t, result.Outcome.Success)
	require.NotNil(t, result.Outcome.Data)
	assert.Equal(t, "Lunch", result.Outcome.Data.Title)
	assert.Equal(t, CategoryAdmin, result.Outcome.Data.Category)
	assert.Equal(t, SourceEndOnly, result.Outcome.Data.TimeSource)
	assert.Nil(t, result.Outcome.Data.StartTime)
	assert.NotNil(t, result.Outcome.Data.EndTime)
	assert.False(t, result.SuggestLLMVerification)
}

func TestRouteRequest_LowConfidenceSuggestsVerification(t *testing.T) {
	result := RouteRequest("log xyzzy for 20 minutes", RouteContext{CurrentTime: ptr(testNow)})

	require.Equal(t, TierPattern, result.Tier)
	assert.True(t, result.Outcome.Success)
	assert.Equal(t, CategoryProd, result.Outcome.Data.Category)
	assert.Equal(t, ConfidenceLow, result.Outcome.Data.CategoryConfidence)
	assert.True(t, result.SuggestLLMVerification)
}

func TestRouteRequest_UsesContext(t *testing.T) {
	offset := -420
	result := RouteRequest("track meeting for 2 hours", RouteContext{
		LastEventEndTime: ptr(testLastEvent),
		CurrentTime:      ptr(testNow),
		UTCOffsetMinutes: &offset,
	})

	require.Equal(t, TierPattern, result.Tier)
	data := result.Outcome.Data
	assert.Equal(t, SourceLastEventPlusDuration, data.TimeSource)
	assert.True(t, testLastEvent.Equal(*data.StartTime))
	assert.True(t, testLastEvent.Add(2*time.Hour).Equal(*data.EndTime))
	assert.Equal(t, 2*time.Hour, data.Duration())
}

func TestRouteResult_PatternJSON(t *testing.T) {
	offset := -420
	result := RouteRequest("log coding from 9am to 11am", RouteContext{
		CurrentTime:      ptr(testNow),
		UTCOffsetMinutes: &offset,
	})

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"tier": 1,
		"method": "pattern",
		"success": true,
		"action": "log",
		"data": {
			"title": "Coding",
			"category": "prod",
			"categoryConfidence": "medium",
			"startTime": "2024-03-15T16:00:00Z",
			"endTime": "2024-03-15T18:00:00Z",
			"timeSource": "explicit_range"
		}
	}`, string(raw))
}

func TestRouteResult_PatternJSONWithVerification(t *testing.T) {
	result := RouteRequest("log xyzzy", RouteContext{CurrentTime: ptr(testNow)})

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, true, decoded["suggestLLMVerification"])
	data := decoded["data"].(map[string]any)
	assert.Nil(t, data["startTime"])
	assert.Equal(t, "2024-03-15T18:00:00Z", data["endTime"])
}

func TestRouteResult_FallbackJSON(t *testing.T) {
	result := RouteRequest("how was my day yesterday?", RouteContext{CurrentTime: ptr(testNow)})

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"tier": 2,
		"method": "llm",
		"reason": "not_log_request",
		"originalMessage": "how was my day yesterday?",
		"partialData": null
	}`, string(raw))
}

func TestRouteRequest_Idempotent(t *testing.T) {
	offset := 60
	rc := RouteContext{
		LastEventEndTime: ptr(testLastEvent),
		CurrentTime:      ptr(testNow),
		UTCOffsetMinutes: &offset,
	}

	for _, message := range []string{
		"log coding from 9am to 11am",
		"track meeting for 2 hours",
		"how was my day yesterday?",
		"log errands till 5pm",
		"log xyzzy",
	} {
		t.Run(message, func(t *testing.T) {
			first, err := json.Marshal(RouteRequest(message, rc))
			require.NoError(t, err)
			second, err := json.Marshal(RouteRequest(message, rc))
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestRouteRequest_HugeDurationIsCapped(t *testing.T) {
	result := RouteRequest("log coding for 99999999999 hours", RouteContext{CurrentTime: ptr(testNow)})

	require.Equal(t, TierPattern, result.Tier)
	data := result.Outcome.Data
	assert.Equal(t, "Coding", data.Title)
	assert.Equal(t, SourceCurrentMinusDuration, data.TimeSource)
	assert.True(t, testNow.Equal(*data.EndTime))
	assert.Equal(t, MaxDuration, data.Duration())
}

func TestParseLogRequest_ToleratesInvertedRange(t *testing.T) {
	outcome := ParseLogRequest(LogRequest{
		Message:     "log night shift from 11pm to 7am",
		CurrentTime: testNow,
	})

	require.True(t, outcome.Success)
	assert.Equal(t, SourceExplicitRange, outcome.Data.TimeSource)
	assert.True(t, outcome.Data.StartTime.After(*outcome.Data.EndTime))
}
