package middleware

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	apperrors "github.com/hrygo/chronolog/server/internal/errors"
)

// RateLimiter provides per-key rate limiting.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*limiterEntry
	rate   rate.Limit
	burst  int
	now    func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests per key with
// the given burst. Non-positive values fall back to 10/s with burst 20.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &RateLimiter{
		limits: make(map[string]*limiterEntry),
		rate:   rate.Limit(perSecond),
		burst:  burst,
		now:    time.Now,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if e, ok := rl.limits[key]; ok {
		e.lastSeen = rl.now()
		return e.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limits[key] = &limiterEntry{limiter: limiter, lastSeen: rl.now()}
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Prune drops limiters idle for longer than idle and returns how many were dropped.
func (rl *RateLimiter) Prune(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	dropped := 0
	for key, e := range rl.limits {
		if e.lastSeen.Before(cutoff) {
			delete(rl.limits, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}

// RateLimit rejects requests over the limit with RATE_LIMIT_EXCEEDED. Requests
// are keyed by the token's user when one was verified, otherwise by client IP.
func RateLimit(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if userID, ok := VerifiedUserIDFromContext(c.Request().Context()); ok {
				key = "user:" + itoa(userID)
			}
			if !rl.Allow(key) {
				return apperrors.RateLimitExceeded("too many requests")
			}
			return next(c)
		}
	}
}
