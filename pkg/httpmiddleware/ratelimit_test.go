package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowWithinLimit(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 3, Window: time.Minute})
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		_, _, ok := rl.allow("a", now)
		assert.True(t, ok, "request %d should pass", i+1)
	}
	_, _, ok := rl.allow("a", now)
	assert.False(t, ok, "fourth request exceeds the limit")
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Unix(1_700_000_000, 0)

	_, _, ok := rl.allow("a", now)
	require.True(t, ok)
	_, _, ok = rl.allow("a", now)
	require.False(t, ok)

	_, _, ok = rl.allow("b", now)
	assert.True(t, ok, "a different key has its own budget")
}

func TestRateLimiter_SlidingWindowDecays(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	start := time.Unix(1_700_000_000, 0).Truncate(time.Minute)

	_, _, ok := rl.allow("a", start)
	require.True(t, ok)
	_, _, ok = rl.allow("a", start)
	require.True(t, ok)
	_, _, ok = rl.allow("a", start.Add(time.Second))
	require.False(t, ok)

	// Half a window later the previous window weighs 0.5, leaving budget.
	_, _, ok = rl.allow("a", start.Add(90*time.Second))
	assert.True(t, ok)

	// Two full windows later the old traffic is forgotten entirely.
	_, _, ok = rl.allow("a", start.Add(3*time.Minute))
	assert.True(t, ok)
}

func TestRateLimiter_WindowAlignedForFreshKeys(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 5, Window: time.Minute})
	boundary := time.Unix(1_700_000_000, 0).Truncate(time.Minute)

	// A key first seen mid-window gets the same boundary-aligned reset as a
	// key whose counter has already rotated.
	_, resetAt, ok := rl.allow("fresh", boundary.Add(20*time.Second))
	require.True(t, ok)
	assert.Equal(t, boundary.Add(time.Minute), resetAt)

	rl.allow("rotated", boundary.Add(-30*time.Second))
	_, rotatedReset, ok := rl.allow("rotated", boundary.Add(20*time.Second))
	require.True(t, ok)
	assert.Equal(t, resetAt, rotatedReset)
}

func TestRateLimiter_EvictStale(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 5, Window: time.Minute})
	now := time.Unix(1_700_000_000, 0)

	rl.allow("a", now)
	rl.allow("b", now)
	require.Len(t, rl.counters, 2)

	rl.evictStale(now.Add(time.Minute))
	assert.Len(t, rl.counters, 2, "fresh counters survive")

	rl.evictStale(now.Add(3 * time.Minute))
	assert.Empty(t, rl.counters)
}

func TestRateLimit_Middleware(t *testing.T) {
	handler := Wrap(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		RateLimit(RateLimitConfig{Max: 2, Window: time.Minute}),
	)

	do := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	do()
	third := do()
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, third.Body.String())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5000"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 198.51.100.7")
	assert.Equal(t, "203.0.113.5", clientIP(req))
}
