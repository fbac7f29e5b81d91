package restapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zugfinder.bahnradar.org/internal/clock"
)

func newTestRateLimiter(t *testing.T, ratePerSecond int, exemptKeys []string, clk clock.Clock) *RateLimitMiddleware {
	t.Helper()
	rl := NewRateLimitMiddleware(ratePerSecond, time.Second, exemptKeys, clk)
	t.Cleanup(rl.Stop)
	return rl
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitAllowsWithinBurst(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rl := newTestRateLimiter(t, 5, nil, clk)
	handler := rl.Handler()(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trains/search?key=alpha", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitRejectsBeyondBurst(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rl := newTestRateLimiter(t, 2, nil, clk)
	handler := rl.Handler()(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trains/search?key=alpha", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trains/search?key=alpha", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitTracksKeysIndependently(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rl := newTestRateLimiter(t, 1, nil, clk)
	handler := rl.Handler()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trains/search?key=alpha", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trains/search?key=alpha", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trains/search?key=beta", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "a second key has its own budget")
}

func TestRateLimitExemptKeysBypassLimiting(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rl := newTestRateLimiter(t, 1, []string{"trusted"}, clk)
	handler := rl.Handler()(okHandler())

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trains/search?key=trusted", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitCleanupEvictsIdleClients(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rl := newTestRateLimiter(t, 5, nil, clk)
	handler := rl.Handler()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trains/search?key=alpha", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rl.mu.RLock()
	_, exists := rl.limiters["alpha"]
	rl.mu.RUnlock()
	require.True(t, exists)

	clk.Advance(11 * time.Minute)
	rl.cleanupOnce()

	rl.mu.RLock()
	_, exists = rl.limiters["alpha"]
	rl.mu.RUnlock()
	assert.False(t, exists, "idle clients are evicted")
}
