package hafas

import (
	"sort"
	"strings"
	"sync"
	"time"

	"zugfinder.bahnradar.org/internal/clock"
)

// ResponseCache is a bounded, TTL-based cache for raw upstream response
// payloads. Entries past their TTL are never returned; eviction removes
// expired entries first and the oldest remaining entry if the cache is
// still over capacity.
type ResponseCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	ttl        time.Duration
	maxEntries int
	clock      clock.Clock
}

type cacheEntry struct {
	value    []byte
	storedAt time.Time
}

// NewResponseCache creates a cache holding at most maxEntries payloads for
// at most ttl each.
func NewResponseCache(ttl time.Duration, maxEntries int, clk clock.Clock) *ResponseCache {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &ResponseCache{
		entries:    make(map[string]*cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clk,
	}
}

// CacheKey derives a deterministic cache key from an endpoint name and its
// parameters. Parameters are sorted so the key is order-independent.
func CacheKey(endpoint string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(endpoint)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}

// Get returns the cached payload for key if present and unexpired.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Put stores a payload under key, evicting expired entries and the oldest
// remaining entry if the cache exceeds its capacity.
func (c *ResponseCache) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()

	for k, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, k)
		}
	}

	for c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; exists {
			break
		}
		oldestKey := ""
		var oldestAt time.Time
		for k, entry := range c.entries {
			if oldestKey == "" || entry.storedAt.Before(oldestAt) {
				oldestKey = k
				oldestAt = entry.storedAt
			}
		}
		delete(c.entries, oldestKey)
	}

	c.entries[key] = &cacheEntry{value: value, storedAt: now}
}

// Len returns the number of entries currently held, including any that have
// expired but not yet been evicted.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
