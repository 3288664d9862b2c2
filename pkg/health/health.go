// Package health provides Kubernetes-style liveness and readiness probes.
//
// Registered checks run periodically in background goroutines. A check flips
// to unhealthy only after three consecutive failures and back to healthy
// after one success, so probes do not flap on transient errors.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const (
	failureThreshold = 3
	successThreshold = 1
)

// check holds one registered check and its runtime state. The consecutive
// counters are touched only by the single loop goroutine; healthy and
// lastErr are shared with HTTP handlers and use atomics.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func (c *check) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(probeCtx)
	c.lastErr.Store(&err)

	if err != nil {
		c.oks = 0
		if c.fails++; c.fails >= failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	if c.oks++; c.oks >= successThreshold {
		c.healthy.Store(true)
	}
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
}

// New creates a Health instance. The service starts not-ready; call
// SetReady(true) once initialization completes.
func New() *Health {
	return &Health{}
}

func newCheck(name string, timeout time.Duration, fn CheckFunc) *check {
	c := &check{name: name, timeout: timeout, fn: fn}
	c.healthy.Store(true) // assume healthy until proven otherwise
	return c
}

// AddLivenessCheck registers a liveness check, e.g. goroutine count.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newCheck(name, timeout, fn))
}

// AddReadinessCheck registers a readiness check, e.g. database connectivity.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newCheck(name, timeout, fn))
}

// Start launches one background goroutine per registered check, each probing
// at the given interval until the context is cancelled or Stop is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	all := append(append([]*check{}, h.liveness...), h.readiness...)
	h.mu.Unlock()

	for _, c := range all {
		go func(c *check) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			c.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}(c)
	}
}

// Stop cancels the background check goroutines. Safe to call repeatedly.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate: true after initialization,
// false during graceful shutdown to drain traffic.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check currently passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.readiness {
		if !c.healthy.Load() {
			return false
		}
	}
	return true
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 when all liveness checks pass, else 503
// with the failing checks.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := append([]*check{}, h.liveness...)
	h.mu.RUnlock()

	writeStatus(w, failures(checks))
}

// ReadyEndpoint serves /readyz: 200 when the service is marked ready and all
// readiness checks pass, else 503 with details.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := append([]*check{}, h.readiness...)
	h.mu.RUnlock()

	failing := failures(checks)
	if !h.ready.Load() {
		failing["_readiness"] = "service is not ready"
	}
	writeStatus(w, failing)
}

func failures(checks []*check) map[string]string {
	out := make(map[string]string)
	for _, c := range checks {
		if c.healthy.Load() {
			continue
		}
		if p := c.lastErr.Load(); p != nil && *p != nil {
			out[c.name] = (*p).Error()
		} else {
			out[c.name] = "check is unhealthy"
		}
	}
	return out
}

func writeStatus(w http.ResponseWriter, failing map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failing) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failing
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
