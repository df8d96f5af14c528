// Package infra provides shared infrastructure components used across
// the application: response caching, rate limiting and retries.
package infra

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a simple thread-safe in-memory cache with TTL.
// A zero or negative TTL disables caching: Set is a no-op and Get always misses.
// Expired entries are dropped when Get sees them and swept from Set at most once per TTL.
type Cache[V any] struct {
	mu        sync.Mutex
	entries   map[string]cacheEntry[V]
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewCache creates a new cache with the given default TTL.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]cacheEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a value from the cache. Returns the zero value, false if not found or expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores a value in the cache with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if now.Sub(c.lastSweep) >= c.ttl {
		c.sweepLocked(now)
	}
	c.entries[key] = cacheEntry[V]{
		value:     value,
		expiresAt: now.Add(c.ttl),
	}
}

// size returns the number of stored entries, expired ones not yet swept included.
func (c *Cache[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) sweepLocked(now time.Time) {
	for k, v := range c.entries {
		if now.After(v.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.lastSweep = now
}
