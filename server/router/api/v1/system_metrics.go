package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// MetricsOverviewResponse represents the overview response of routing metrics.
type MetricsOverviewResponse struct {
	TotalRequests    int64            `json:"total_requests"`
	SuccessRate      float64          `json:"success_rate"`
	PatternRate      float64          `json:"pattern_rate"`
	TierPattern      int64            `json:"tier_pattern"`
	TierLLM          int64            `json:"tier_llm"`
	FallbackReasons  map[string]int64 `json:"fallback_reasons"`
	LLMCalls         int64            `json:"llm_calls"`
	LLMFailures      int64            `json:"llm_failures"`
	CacheHits        int64            `json:"cache_hits"`
	Persisted        int64            `json:"persisted"`
	AvgLatencyMs     int64            `json:"avg_latency_ms"`
	ErrorCount       int64            `json:"error_count"`
	SampledDurations int              `json:"sampled_durations"`
	Cache            *CacheOverview   `json:"cache,omitempty"`
}

// CacheOverview is the interpretation cache usage; absent without an LLM.
type CacheOverview struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// GetMetricsOverview returns the routing metrics since start.
// GET /api/v1/system/metrics
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	snapshot := s.TimeLog.Metrics().Snapshot()
	resp := MetricsOverviewResponse{
		TotalRequests:    snapshot.RequestTotal,
		SuccessRate:      snapshot.SuccessRate(),
		PatternRate:      snapshot.PatternRate(),
		TierPattern:      snapshot.TierPattern,
		TierLLM:          snapshot.TierLLM,
		FallbackReasons:  snapshot.FallbackReasons,
		LLMCalls:         snapshot.LLMCalls,
		LLMFailures:      snapshot.LLMFailures,
		CacheHits:        snapshot.CacheHits,
		Persisted:        snapshot.Persisted,
		AvgLatencyMs:     snapshot.AverageDurationMs,
		ErrorCount:       snapshot.RequestFailed,
		SampledDurations: snapshot.DurationCount,
	}
	if stats, ok := s.TimeLog.CacheStats(); ok {
		resp.Cache = &CacheOverview{Size: stats.Size, Hits: stats.Hits, Misses: stats.Misses}
	}
	return c.JSON(http.StatusOK, resp)
}
