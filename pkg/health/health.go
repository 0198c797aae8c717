// Package health provides liveness and readiness probe endpoints.
//
// Liveness reports whether the process is up; it succeeds as soon as the
// handler is mounted. Readiness runs the registered checks on demand, each
// under its own timeout, and additionally gates on an explicit ready flag so
// the server can drain before shutdown.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes a single dependency. It returns nil when the dependency is
// reachable and healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Handler serves liveness and readiness probes.
type Handler struct {
	mu     sync.RWMutex
	checks []check
	ready  atomic.Bool
}

// New creates an empty health handler. The handler starts not ready; call
// SetReady(true) once the server is accepting traffic.
func New() *Handler {
	return &Handler{}
}

// AddCheck registers a named readiness check executed with the given timeout
// on every readiness probe.
func (h *Handler) AddCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the readiness gate. Setting it to false makes readiness fail
// immediately without running checks, which lets load balancers drain the
// instance during shutdown.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

type probeResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint always reports the process as alive.
func (h *Handler) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, http.StatusOK, probeResult{Status: "ok"})
}

// ReadyEndpoint runs every registered check and reports 200 only when the
// ready flag is set and all checks pass.
func (h *Handler) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		writeProbe(w, http.StatusServiceUnavailable, probeResult{Status: "draining"})
		return
	}

	h.mu.RLock()
	checks := make([]check, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	results := make(map[string]string, len(checks))
	healthy := true
	for _, c := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := c.fn(ctx)
		cancel()
		if err != nil {
			healthy = false
			results[c.name] = err.Error()
		} else {
			results[c.name] = "ok"
		}
	}

	status := http.StatusOK
	res := probeResult{Status: "ok", Checks: results}
	if !healthy {
		status = http.StatusServiceUnavailable
		res.Status = "unavailable"
	}
	writeProbe(w, status, res)
}

func writeProbe(w http.ResponseWriter, status int, res probeResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}
