// Package cache holds model completions keyed by the exact prompt that
// produced them, so an unchanged page does not cost a second model call.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type entry struct {
	value     string
	createdAt time.Time
}

// Cache is an in-memory TTL cache for completions. It is safe for
// concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// New creates a Cache. A ttl of zero or less returns nil, and all methods
// on a nil Cache are no-ops.
func New(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		return nil
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &Cache{
		store:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Key derives a cache key from the model identity and the prompt.
func Key(model, prompt string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached completion younger than the TTL.
func (c *Cache) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.createdAt) > c.ttl {
		return "", false
	}
	return e.value, true
}

// Set stores a completion. Expired entries are swept first; if the cache
// is still full, the oldest entry is evicted.
func (c *Cache) Set(key, value string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.store) >= c.maxEntries {
		for k, e := range c.store {
			if now.Sub(e.createdAt) > c.ttl {
				delete(c.store, k)
			}
		}
	}
	if len(c.store) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.store {
			if oldestKey == "" || e.createdAt.Before(oldest) {
				oldestKey, oldest = k, e.createdAt
			}
		}
		delete(c.store, oldestKey)
	}

	c.store[key] = entry{value: value, createdAt: now}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
