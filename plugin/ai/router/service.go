package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/hrygo/chronolog/plugin/ai/cache"
	"github.com/hrygo/chronolog/plugin/ai/logparse"
	"github.com/hrygo/chronolog/plugin/ai/timeout"
)

// Service implements the two-tier RouterService.
// Tier 1: pattern parsing (sub-millisecond), handles most log requests.
// Tier 2: LLM interpretation (~1s), only for what tier 1 hands over.
type Service struct {
	interpreter *LLMInterpreter
	cache       *cache.LRU[*Interpretation]
	cacheTTL    time.Duration
	sem         *semaphore.Weighted
	group       singleflight.Group
}

// Config contains the configuration for the router service.
type Config struct {
	// LLMClient is optional. Without it tier-2 results are returned as-is.
	LLMClient LLMClient
	// Cache is optional and holds interpretations keyed by message and context.
	Cache    *cache.LRU[*Interpretation]
	CacheTTL time.Duration
	// MaxConcurrency bounds in-flight LLM calls. Defaults to 4.
	MaxConcurrency int
}

// NewService creates a new router service.
func NewService(cfg Config) *Service {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	s := &Service{
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
	}
	if cfg.LLMClient != nil {
		s.interpreter = NewLLMInterpreter(cfg.LLMClient)
	}
	return s
}

// HasInterpreter reports whether tier-2 results are sent to an LLM.
func (s *Service) HasInterpreter() bool {
	return s.interpreter != nil
}

// CacheStats reports interpretation cache usage. It returns false when no
// cache is configured.
func (s *Service) CacheStats() (cache.Stats, bool) {
	if s.cache == nil {
		return cache.Stats{}, false
	}
	return s.cache.Stats(), true
}

// Route routes one message.
func (s *Service) Route(ctx context.Context, message string, rc logparse.RouteContext) (*Decision, error) {
	start := time.Now()

	// Resolve the clock once so both tiers agree on "now".
	if rc.CurrentTime == nil {
		now := start.UTC()
		rc.CurrentTime = &now
	}

	result := logparse.RouteRequest(message, rc)
	decision := &Decision{Result: result}
	if !result.IsFallback() {
		slog.Debug("log request parsed by patterns",
			"input", truncate(message, timeout.MaxTruncateLength),
			"category", result.Outcome.Data.Category,
			"time_source", result.Outcome.Data.TimeSource,
			"suggest_verification", result.SuggestLLMVerification,
			"latency_ms", time.Since(start).Milliseconds())
		return decision, nil
	}

	if s.interpreter == nil {
		slog.Debug("no LLM configured, returning fallback",
			"input", truncate(message, timeout.MaxTruncateLength),
			"reason", result.Reason)
		return decision, nil
	}

	key := cacheKey(message, rc)
	if s.cache != nil {
		if interp, ok := s.cache.Get(key); ok {
			decision.Interpretation = interp
			decision.Cached = true
			slog.Debug("interpretation served from cache",
				"input", truncate(message, timeout.MaxTruncateLength),
				"latency_ms", time.Since(start).Milliseconds())
			return decision, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return decision, errors.Wrap(err, "tier-2 interpretation failed")
	}

	// The shared call outlives any single caller; each caller stops waiting
	// when its own context ends.
	sharedCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		interp, err := s.interpret(sharedCtx, result, rc)
		if err == nil && s.cache != nil {
			s.cache.Set(key, interp, s.cacheTTL)
		}
		return interp, err
	})

	var interp *Interpretation
	select {
	case <-ctx.Done():
		return decision, errors.Wrap(ctx.Err(), "tier-2 interpretation failed")
	case res := <-ch:
		if res.Err != nil {
			slog.Warn("LLM interpreter error", "reason", result.Reason, "error", res.Err)
			return decision, errors.Wrap(res.Err, "tier-2 interpretation failed")
		}
		interp = res.Val.(*Interpretation)
	}
	decision.Interpretation = interp

	slog.Debug("log request interpreted by LLM",
		"input", truncate(message, timeout.MaxTruncateLength),
		"reason", result.Reason,
		"is_log_request", interp.IsLogRequest,
		"reasoning", interp.Reasoning,
		"latency_ms", time.Since(start).Milliseconds())
	return decision, nil
}

func (s *Service) interpret(ctx context.Context, result logparse.RouteResult, rc logparse.RouteContext) (*Interpretation, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout.InterpretTimeout)
	defer cancel()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	offset := 0
	if rc.UTCOffsetMinutes != nil {
		offset = *rc.UTCOffsetMinutes
	}
	return s.interpreter.Interpret(ctx, InterpretRequest{
		Result:           result,
		CurrentTime:      *rc.CurrentTime,
		UTCOffsetMinutes: offset,
		LastEventEndTime: rc.LastEventEndTime,
	})
}

// cacheKey identifies an interpretation. The clock is truncated to the minute
// so repeated messages within a minute share one LLM call.
func cacheKey(message string, rc logparse.RouteContext) string {
	offset := 0
	if rc.UTCOffsetMinutes != nil {
		offset = *rc.UTCOffsetMinutes
	}
	last := "-"
	if rc.LastEventEndTime != nil {
		last = rc.LastEventEndTime.UTC().Format(time.RFC3339)
	}
	now := rc.CurrentTime.UTC().Truncate(time.Minute).Format(time.RFC3339)
	return fmt.Sprintf("interp:%s|%d|%s|%s", now, offset, last, message)
}

// truncate truncates a string to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}

// Ensure Service implements RouterService
var _ RouterService = (*Service)(nil)
