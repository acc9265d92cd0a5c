package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects routing metrics: tier counts, fallback reasons, LLM
// outcomes and latency.
type Metrics struct {
	mu sync.Mutex

	// Counters
	requestTotal  atomic.Int64
	requestFailed atomic.Int64
	tierPattern   atomic.Int64
	tierLLM       atomic.Int64
	llmCalls      atomic.Int64
	llmFailures   atomic.Int64
	cacheHits     atomic.Int64
	persisted     atomic.Int64

	fallbackReasons map[string]int64

	// Last maxDurations latencies, oldest first.
	durations    []time.Duration
	maxDurations int
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000 // Default to keeping last 1000 durations
	}
	return &Metrics{
		fallbackReasons: make(map[string]int64),
		durations:       make([]time.Duration, 0, maxDurations),
		maxDurations:    maxDurations,
	}
}

// Global metrics instance.
var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the global metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRoute records one routed message. reason is empty for tier 1.
func (m *Metrics) RecordRoute(tier int, reason string, duration time.Duration) {
	m.requestTotal.Add(1)
	if tier == 1 {
		m.tierPattern.Add(1)
	} else {
		m.tierLLM.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if reason != "" {
		m.fallbackReasons[reason]++
	}
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
}

// RecordFailure records a request that ended in an error.
func (m *Metrics) RecordFailure() {
	m.requestFailed.Add(1)
}

// RecordLLMCall records a tier-2 interpretation attempt.
func (m *Metrics) RecordLLMCall(cached bool, err error) {
	if cached {
		m.cacheHits.Add(1)
		return
	}
	m.llmCalls.Add(1)
	if err != nil {
		m.llmFailures.Add(1)
	}
}

// RecordPersisted records a stored log entry.
func (m *Metrics) RecordPersisted() {
	m.persisted.Add(1)
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.tierPattern.Store(0)
	m.tierLLM.Store(0)
	m.llmCalls.Store(0)
	m.llmFailures.Store(0)
	m.cacheHits.Store(0)
	m.persisted.Store(0)

	m.mu.Lock()
	m.fallbackReasons = make(map[string]int64)
	m.durations = make([]time.Duration, 0, m.maxDurations)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	reasons := make(map[string]int64, len(m.fallbackReasons))
	for k, v := range m.fallbackReasons {
		reasons[k] = v
	}
	var total time.Duration
	for _, d := range m.durations {
		total += d
	}
	var avg int64
	if len(m.durations) > 0 {
		avg = (total / time.Duration(len(m.durations))).Milliseconds()
	}

	return &MetricsSnapshot{
		RequestTotal:      m.requestTotal.Load(),
		RequestFailed:     m.requestFailed.Load(),
		TierPattern:       m.tierPattern.Load(),
		TierLLM:           m.tierLLM.Load(),
		LLMCalls:          m.llmCalls.Load(),
		LLMFailures:       m.llmFailures.Load(),
		CacheHits:         m.cacheHits.Load(),
		Persisted:         m.persisted.Load(),
		FallbackReasons:   reasons,
		AverageDurationMs: avg,
		DurationCount:     len(m.durations),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal      int64            `json:"requestTotal"`
	RequestFailed     int64            `json:"requestFailed"`
	TierPattern       int64            `json:"tierPattern"`
	TierLLM           int64            `json:"tierLlm"`
	LLMCalls          int64            `json:"llmCalls"`
	LLMFailures       int64            `json:"llmFailures"`
	CacheHits         int64            `json:"cacheHits"`
	Persisted         int64            `json:"persisted"`
	FallbackReasons   map[string]int64 `json:"fallbackReasons"`
	AverageDurationMs int64            `json:"averageDurationMs"`
	DurationCount     int              `json:"durationCount"`
}

// PatternRate returns the share of messages handled by tier 1 as a percentage (0-100).
func (s *MetricsSnapshot) PatternRate() float64 {
	if s.RequestTotal == 0 {
		return 0
	}
	return float64(s.TierPattern) / float64(s.RequestTotal) * 100.0
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
