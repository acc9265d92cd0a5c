package cache

import (
	"context"
	"sync"
	"time"
)

// ServiceConfig configures the cache service.
type ServiceConfig struct {
	Capacity        int           // Maximum number of entries (default: 1000)
	DefaultTTL      time.Duration // Default TTL for entries (default: 5 minutes)
	CleanupInterval time.Duration // Interval for expired entry cleanup (default: 1 minute)
}

// DefaultServiceConfig returns default cache service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Capacity:        1000,
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// Service is an LRU with a background sweeper for expired entries.
type Service[V any] struct {
	*LRU[V]

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a cache service and starts its sweeper. Call Close to stop it.
func NewService[V any](cfg ServiceConfig) *Service[V] {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service[V]{
		LRU:    NewLRU[V](cfg.Capacity, cfg.DefaultTTL),
		cancel: cancel,
	}

	s.wg.Add(1)
	go s.cleanupLoop(ctx, cfg.CleanupInterval)

	return s
}

// Close stops the sweeper.
func (s *Service[V]) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service[V]) cleanupLoop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpired()
		}
	}
}
