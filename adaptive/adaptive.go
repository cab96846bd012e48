// Package adaptive implements the adaptive-concurrency controller (spec
// §4.5): it keeps an effective concurrency cap within [Min, Max], adjusted on
// a fixed sampling cadence from a trailing window of per-item latency and
// success observations.
//
// No direct teacher/toolops analogue exists (jonwraymond-toolops/resilience's
// Bulkhead caps concurrency but never adapts it); the package follows the same
// config-with-defaults-plus-mutex-protected-state shape as breaker and
// ratelimit. Per spec §9 open question (b), the step policy is additive
// increase / multiplicative decrease: +1 on increase, x0.5 (floor Min) on
// decrease.
package adaptive

import (
	"sort"
	"sync"
	"time"
)

// Config configures a Controller.
type Config struct {
	Min              int
	Max              int
	TargetLatency    time.Duration
	MinSuccessRate   float64 // e.g. 0.95
	SamplingInterval time.Duration
	WindowSize       int // number of trailing observations kept; default 200
}

// Controller tracks a trailing window of observations and an effective cap.
// Sample is called by the dispatcher after every completed item; Evaluate
// (called on a timer by Run, or directly) re-evaluates the cap.
type Controller struct {
	cfg Config

	mu      sync.Mutex
	effective int
	window    []observation
}

type observation struct {
	latency time.Duration
	success bool
}

// New constructs a Controller, applying defaults for zero-valued fields and
// starting at Max (the least restrictive effective cap).
func New(cfg Config) *Controller {
	if cfg.Min <= 0 {
		cfg.Min = 1
	}
	if cfg.Max < cfg.Min {
		cfg.Max = cfg.Min
	}
	if cfg.TargetLatency <= 0 {
		cfg.TargetLatency = 100 * time.Millisecond
	}
	if cfg.MinSuccessRate <= 0 {
		cfg.MinSuccessRate = 0.9
	}
	if cfg.SamplingInterval <= 0 {
		cfg.SamplingInterval = time.Second
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 200
	}
	return &Controller{cfg: cfg, effective: cfg.Max}
}

// Sample records one completed item's latency and outcome.
func (c *Controller) Sample(latency time.Duration, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.window = append(c.window, observation{latency: latency, success: success})
	if len(c.window) > c.cfg.WindowSize {
		c.window = c.window[len(c.window)-c.cfg.WindowSize:]
	}
}

// Effective returns the current admission cap.
func (c *Controller) Effective() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.effective
}

// Evaluate re-computes the effective cap from the trailing window per the
// decision rule in spec §4.5, and returns the new value. It is safe to call
// directly from a test without a running ticker.
func (c *Controller) Evaluate() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.window) == 0 {
		return c.effective
	}

	successRate, p50 := summarize(c.window)

	switch {
	case successRate < c.cfg.MinSuccessRate || p50 > time.Duration(float64(c.cfg.TargetLatency)*1.25):
		c.effective = max(c.cfg.Min, int(float64(c.effective)*0.5))
	case successRate >= c.cfg.MinSuccessRate && p50 < time.Duration(float64(c.cfg.TargetLatency)*0.75):
		c.effective = min(c.cfg.Max, c.effective+1)
	}
	return c.effective
}

func summarize(obs []observation) (successRate float64, p50 time.Duration) {
	ok := 0
	latencies := make([]time.Duration, len(obs))
	for i, o := range obs {
		latencies[i] = o.latency
		if o.success {
			ok++
		}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	successRate = float64(ok) / float64(len(obs))
	p50 = latencies[len(latencies)/2]
	return
}

// Run calls Evaluate every cfg.SamplingInterval until stop is closed. It
// blocks the caller; invoke it in its own goroutine.
func (c *Controller) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.SamplingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Evaluate()
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
