package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the maximum number of requests allowed per window.
	Max int
	// Window is the duration of each sliding window.
	Window time.Duration
	// KeyFunc extracts the rate limit key from a request.
	// If nil, the client IP address is used.
	KeyFunc func(*http.Request) string
}

// windowCounter tracks request counts across the current and previous
// window for the sliding window estimate.
type windowCounter struct {
	prev      float64
	curr      float64
	currStart time.Time
	prevStart time.Time
}

type rateLimiter struct {
	cfg      RateLimitConfig
	mu       sync.Mutex
	counters map[string]*windowCounter
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	return &rateLimiter{cfg: cfg, counters: make(map[string]*windowCounter)}
}

// allow reports whether the request identified by key fits the limit, along
// with the remaining budget and the reset time of the current window.
func (rl *rateLimiter) allow(key string, now time.Time) (remaining int, resetAt time.Time, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, found := rl.counters[key]
	if !found {
		c = &windowCounter{currStart: now.Truncate(rl.cfg.Window)}
		rl.counters[key] = c
	}

	if now.Sub(c.currStart) >= rl.cfg.Window {
		c.prev, c.prevStart = c.curr, c.currStart
		c.curr = 0
		c.currStart = now.Truncate(rl.cfg.Window)
		if now.Sub(c.prevStart) >= 2*rl.cfg.Window {
			c.prev = 0
		}
	}

	// Weight the previous window by its overlap with the sliding window
	// ending now.
	overlap := 1.0 - now.Sub(c.currStart).Seconds()/rl.cfg.Window.Seconds()
	if overlap < 0 {
		overlap = 0
	}
	estimated := c.prev*overlap + c.curr
	resetAt = c.currStart.Add(rl.cfg.Window)

	if estimated >= float64(rl.cfg.Max) {
		return 0, resetAt, false
	}

	c.curr++
	remaining = int(float64(rl.cfg.Max) - estimated - 1)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, resetAt, true
}

// evictStale drops counters whose windows have fully expired.
func (rl *rateLimiter) evictStale(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, c := range rl.counters {
		if now.Sub(c.currStart) >= 2*rl.cfg.Window {
			delete(rl.counters, key)
		}
	}
}

// RateLimit returns a middleware enforcing a per-key sliding window limit.
// Rejected requests get 429 with a JSON body; every response carries
// X-RateLimit-Limit, X-RateLimit-Remaining, and X-RateLimit-Reset headers.
//
// This variant never evicts idle keys; use RateLimitWithCleanup for
// long-running servers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return rateLimitMiddleware(newRateLimiter(cfg))
}

// RateLimitWithCleanup is RateLimit plus a background goroutine that evicts
// expired counters every two windows until ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * rl.cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.evictStale(now)
			}
		}
	}()
	return rateLimitMiddleware(rl)
}

func rateLimitMiddleware(rl *rateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, ok := rl.allow(rl.cfg.KeyFunc(r), time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retryAfter := time.Until(resetAt)
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP, preferring X-Forwarded-For, then
// X-Real-IP, then RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
