package hafas

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zugfinder.bahnradar.org/internal/clock"
)

func TestCacheKeyIsOrderIndependent(t *testing.T) {
	a := CacheKey("departures", map[string]string{"duration": "360", "results": "150", "when": "now"})
	b := CacheKey("departures", map[string]string{"when": "now", "results": "150", "duration": "360"})

	assert.Equal(t, a, b)
	assert.Equal(t, "departures|duration=360|results=150|when=now", a)
}

func TestCacheKeyDistinguishesEndpoints(t *testing.T) {
	params := map[string]string{"duration": "360"}

	assert.NotEqual(t, CacheKey("departures", params), CacheKey("arrivals", params))
}

func TestResponseCacheReturnsFreshEntries(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewResponseCache(2*time.Minute, 10, clk)

	cache.Put("key", []byte("payload"))

	clk.Advance(90 * time.Second)
	value, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), value)
}

func TestResponseCacheExpiresEntriesPastTTL(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewResponseCache(2*time.Minute, 10, clk)

	cache.Put("key", []byte("payload"))

	clk.Advance(2*time.Minute + time.Second)
	_, ok := cache.Get("key")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len(), "expired entry is dropped on read")
}

func TestResponseCacheEvictsExpiredBeforeOldest(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewResponseCache(2*time.Minute, 2, clk)

	cache.Put("stale", []byte("a"))
	clk.Advance(3 * time.Minute)
	cache.Put("fresh", []byte("b"))

	cache.Put("newer", []byte("c"))

	_, ok := cache.Get("stale")
	assert.False(t, ok)
	_, ok = cache.Get("fresh")
	assert.True(t, ok, "unexpired entry survives while the stale one goes")
	_, ok = cache.Get("newer")
	assert.True(t, ok)
}

func TestResponseCacheEvictsOldestAtCapacity(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewResponseCache(time.Hour, 2, clk)

	cache.Put("first", []byte("a"))
	clk.Advance(time.Second)
	cache.Put("second", []byte("b"))
	clk.Advance(time.Second)
	cache.Put("third", []byte("c"))

	_, ok := cache.Get("first")
	assert.False(t, ok, "oldest entry evicted to make room")
	_, ok = cache.Get("second")
	assert.True(t, ok)
	_, ok = cache.Get("third")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.Len())
}

func TestResponseCacheOverwriteDoesNotEvict(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewResponseCache(time.Hour, 2, clk)

	cache.Put("first", []byte("a"))
	cache.Put("second", []byte("b"))
	cache.Put("first", []byte("a2"))

	value, ok := cache.Get("first")
	require.True(t, ok)
	assert.Equal(t, []byte("a2"), value)
	_, ok = cache.Get("second")
	assert.True(t, ok)
}
