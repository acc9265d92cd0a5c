package router

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chronolog/plugin/ai/cache"
	"github.com/hrygo/chronolog/plugin/ai/logparse"
)

const yogaResponse = `{"is_log_request": true, "title": "Yoga", "category": "prod", "start_time": "2024-03-15T07:00:00Z", "end_time": "2024-03-15T08:00:00Z", "confidence": 0.9}`

func TestService_PatternTierSkipsLLM(t *testing.T) {
	client := NewMockLLMClient(yogaResponse)
	svc := NewService(Config{LLMClient: client})

	decision, err := svc.Route(context.Background(), "log coding from 9am to 11am", logparse.RouteContext{CurrentTime: &testNow})
	require.NoError(t, err)
	assert.Equal(t, logparse.TierPattern, decision.Result.Tier)
	assert.Nil(t, decision.Interpretation)
	assert.Zero(t, client.Calls())
}

func TestService_FallbackWithoutLLM(t *testing.T) {
	svc := NewService(Config{})
	assert.False(t, svc.HasInterpreter())

	decision, err := svc.Route(context.Background(), "how was my day yesterday?", logparse.RouteContext{})
	require.NoError(t, err)
	assert.True(t, decision.Result.IsFallback())
	assert.Equal(t, logparse.ReasonNotLogRequest, decision.Result.Reason)
	assert.Nil(t, decision.Interpretation)
}

func TestService_InterpretsFallback(t *testing.T) {
	client := NewMockLLMClient(yogaResponse)
	svc := NewService(Config{LLMClient: client})

	decision, err := svc.Route(context.Background(), "did an hour of yoga this morning", logparse.RouteContext{CurrentTime: &testNow})
	require.NoError(t, err)
	require.True(t, decision.Result.IsFallback())
	require.NotNil(t, decision.Interpretation)
	assert.True(t, decision.Interpretation.IsLogRequest)
	assert.Equal(t, "Yoga", decision.Interpretation.Data.Title)
	assert.Equal(t, time.Hour, decision.Interpretation.Data.Duration())
	assert.False(t, decision.Cached)
	assert.Equal(t, 1, client.Calls())
}

func TestService_CachesInterpretations(t *testing.T) {
	client := NewMockLLMClient(yogaResponse)
	svc := NewService(Config{
		LLMClient: client,
		Cache:     cache.NewLRU[*Interpretation](16, time.Minute),
	})
	rc := logparse.RouteContext{CurrentTime: &testNow}

	_, err := svc.Route(context.Background(), "did an hour of yoga this morning", rc)
	require.NoError(t, err)
	decision, err := svc.Route(context.Background(), "did an hour of yoga this morning", rc)
	require.NoError(t, err)

	assert.True(t, decision.Cached)
	assert.Equal(t, 1, client.Calls())

	// A different context is a different key.
	offset := 60
	rc.UTCOffsetMinutes = &offset
	_, err = svc.Route(context.Background(), "did an hour of yoga this morning", rc)
	require.NoError(t, err)
	assert.Equal(t, 2, client.Calls())
}

func TestService_LLMErrorKeepsFallback(t *testing.T) {
	client := NewMockLLMClient("")
	client.SetError(errors.New("upstream down"))
	lru := cache.NewLRU[*Interpretation](16, time.Minute)
	svc := NewService(Config{LLMClient: client, Cache: lru})

	decision, err := svc.Route(context.Background(), "how was my day yesterday?", logparse.RouteContext{CurrentTime: &testNow})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
	require.NotNil(t, decision)
	assert.True(t, decision.Result.IsFallback())
	assert.Nil(t, decision.Interpretation)
	assert.Zero(t, lru.Len())
}

func TestService_CanceledContext(t *testing.T) {
	svc := NewService(Config{LLMClient: NewMockLLMClient(yogaResponse), MaxConcurrency: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Route(ctx, "how was my day yesterday?", logparse.RouteContext{CurrentTime: &testNow})
	assert.ErrorIs(t, err, context.Canceled)
}

// gatedLLMClient blocks every call until release is closed.
type gatedLLMClient struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedLLMClient() *gatedLLMClient {
	return &gatedLLMClient{entered: make(chan struct{}), release: make(chan struct{})}
}

func (c *gatedLLMClient) Complete(ctx context.Context, _ string, _ ModelConfig) (string, error) {
	c.once.Do(func() { close(c.entered) })
	select {
	case <-c.release:
		return yogaResponse, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestService_CanceledCallerDoesNotFailOthers(t *testing.T) {
	client := newGatedLLMClient()
	svc := NewService(Config{LLMClient: client, Cache: cache.NewLRU[*Interpretation](16, time.Minute)})
	rc := logparse.RouteContext{CurrentTime: &testNow}
	const message = "did an hour of yoga this morning"

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Route(firstCtx, message, rc)
		firstErr <- err
	}()
	<-client.entered

	type routed struct {
		decision *Decision
		err      error
	}
	second := make(chan routed, 1)
	go func() {
		decision, err := svc.Route(context.Background(), message, rc)
		second <- routed{decision, err}
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(client.release)
	got := <-second
	require.NoError(t, got.err)
	require.NotNil(t, got.decision.Interpretation)
	assert.Equal(t, "Yoga", got.decision.Interpretation.Data.Title)

	stats, ok := svc.CacheStats()
	require.True(t, ok)
	assert.Equal(t, 1, stats.Size)
}

func TestService_CacheStatsWithoutCache(t *testing.T) {
	_, ok := NewService(Config{}).CacheStats()
	assert.False(t, ok)
}

func TestService_ConcurrentRoutes(t *testing.T) {
	client := NewMockLLMClient(yogaResponse)
	svc := NewService(Config{LLMClient: client, MaxConcurrency: 2})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := svc.Route(context.Background(), "did an hour of yoga this morning", logparse.RouteContext{CurrentTime: &testNow})
			assert.NoError(t, err)
			assert.NotNil(t, decision.Interpretation)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, client.Calls(), 20)
	assert.GreaterOrEqual(t, client.Calls(), 1)
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("log x", logparse.RouteContext{CurrentTime: ptr(testNow)})
	b := cacheKey("log x", logparse.RouteContext{CurrentTime: ptr(testNow.Add(30 * time.Second))})
	c := cacheKey("log x", logparse.RouteContext{CurrentTime: ptr(testNow.Add(time.Minute))})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	// "é" is two bytes; the cut backs off to the rune boundary.
	assert.Equal(t, "caf...", truncate("café au lait", 4))
	assert.Equal(t, "日...", truncate("日本語", 4))
}
