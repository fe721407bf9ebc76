package aireview

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache stores AI review feedback keyed by a digest of the snippet, so
// identical submissions within the TTL skip the endpoint entirely.
// Concurrent misses for the same snippet are collapsed into one upstream
// call.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time
}

type cacheEntry struct {
	feedback  string
	expiresAt time.Time
}

// fillResult travels through the singleflight group so every waiter learns
// whether the flight served a stored entry or performed a fresh fill.
type fillResult struct {
	feedback string
	cached   bool
}

// NewCache builds a cache with the given entry lifetime. A non-positive TTL
// disables caching entirely.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(source, language string) string {
	h := sha256.New()
	h.Write([]byte(language))
	h.Write([]byte{0})
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// GetOrFill returns cached feedback if fresh, otherwise invokes fill and
// stores its result. The second return reports whether the value came from
// the cache.
func (c *Cache) GetOrFill(ctx context.Context, source, language string, fill func(context.Context) (string, error)) (string, bool, error) {
	if c.ttl <= 0 {
		feedback, err := fill(ctx)
		return feedback, false, err
	}

	key := cacheKey(source, language)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		return entry.feedback, true, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the group: another caller may have filled
		// between our read miss and entering the flight.
		c.mu.RLock()
		entry, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && c.now().Before(entry.expiresAt) {
			return fillResult{feedback: entry.feedback, cached: true}, nil
		}

		feedback, err := fill(ctx)
		if err != nil {
			return fillResult{}, err
		}

		c.mu.Lock()
		c.entries[key] = cacheEntry{feedback: feedback, expiresAt: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return fillResult{feedback: feedback}, nil
	})
	if err != nil {
		return "", false, err
	}
	res := v.(fillResult)
	return res.feedback, res.cached, nil
}

// Purge drops expired entries. The server calls this periodically; the CLI
// never needs to.
func (c *Cache) Purge() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Len reports the number of stored entries, including expired ones not yet
// purged.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
