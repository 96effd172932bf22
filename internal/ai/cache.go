package ai

import (
	"strings"
	"sync"
	"time"
)

// Cache is a bounded TTL cache for suggestion results, keyed by lowercased
// input. The clock is injectable so expiry is testable without wall time.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	values  []string
	savedAt time.Time
}

// NewCache creates a cache holding at most max entries for ttl each.
func NewCache(ttl time.Duration, max int, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		max:     max,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached values for key if present and unexpired.
func (c *Cache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[normalizeKey(key)]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.savedAt) >= c.ttl {
		delete(c.entries, normalizeKey(key))
		return nil, false
	}
	return entry.values, true
}

// Put stores values under key, evicting the oldest entry when full.
func (c *Cache) Put(key string, values []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := normalizeKey(key)
	if _, exists := c.entries[k]; !exists && len(c.entries) >= c.max {
		c.evictOldestLocked()
	}
	c.entries[k] = cacheEntry{values: values, savedAt: c.now()}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.savedAt.Before(oldest) {
			oldestKey = k
			oldest = e.savedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
