// Package cache provides the snapshot cache that shields the pipeline from
// upstream rate limits. Entries are raw response bytes keyed by fetch URL.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is the read-through store consulted before any upstream fetch.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// TTLCache is the in-memory default backend: a mutex-guarded map with
// per-entry expiry and a background sweep.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]ttlEntry
	hits    int64
	misses  int64

	stopCh   chan struct{}
	stopOnce sync.Once
}

type ttlEntry struct {
	value   []byte
	expires time.Time
}

// NewTTLCache creates an in-memory cache and starts its cleanup goroutine.
func NewTTLCache() *TTLCache {
	c := &TTLCache{
		entries: make(map[string]ttlEntry),
		stopCh:  make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Get returns the cached value if present and not expired.
func (c *TTLCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expires) {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return entry.value, true
}

// Set stores a value with the given TTL.
func (c *TTLCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ttlEntry{value: value, expires: time.Now().Add(ttl)}
}

// Stats returns cumulative hit and miss counts.
func (c *TTLCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Stop shuts down the cleanup goroutine.
func (c *TTLCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *TTLCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *TTLCache) removeExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}
}
