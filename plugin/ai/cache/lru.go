// Package cache provides an in-memory LRU cache with per-entry TTL.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a size-bounded, TTL-aware cache safe for concurrent use.
type LRU[V any] struct {
	capacity   int
	defaultTTL time.Duration
	now        func() time.Time

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List // front is most recently used

	hits, misses int64
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Size   int
	Hits   int64
	Misses int64
}

// NewLRU creates a cache holding at most capacity entries.
func NewLRU[V any](capacity int, defaultTTL time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	return &LRU[V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		now:        time.Now,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Get returns the value for key if present and not expired.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	e := el.Value.(*entry[V])
	if !c.now().Before(e.expiresAt) {
		c.remove(el)
		c.misses++
		return zero, false
	}

	c.order.MoveToFront(el)
	c.hits++
	return e.value, true
}

// Set stores value under key. A non-positive ttl uses the default.
func (c *LRU[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value, e.expiresAt = value, expiresAt
		c.order.MoveToFront(el)
		return
	}

	for len(c.items) >= c.capacity {
		c.remove(c.order.Back())
	}
	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})
}

// CleanupExpired removes all expired entries and returns how many it removed.
func (c *LRU[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*entry[V]).expiresAt) {
			c.remove(el)
			count++
		}
		el = prev
	}
	return count
}

// Stats returns the current size and hit counters.
func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: len(c.items), Hits: c.hits, Misses: c.misses}
}

// Len returns the number of entries, expired ones included until swept.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Must be called with lock held.
func (c *LRU[V]) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}
