// Package ratelimit implements the token-bucket rate limiter overlay
// (spec §4.4).
//
// Grounded on jonwraymond-toolops/resilience/ratelimit.go's RateLimiter
// (float64 bucket, lazy refill computed on access under the same mutex as the
// counters). Adds the spec's non-blocking Throttled mode (TryAcquire)
// alongside the default blocking Wait, and an OnThrottleAsync callback fired
// only when a caller actually waited for a token.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/ygrebnov/rivulet/metrics"
)

// Config configures a Limiter.
type Config struct {
	// TokensPerSecond is the bucket's steady-state refill rate.
	TokensPerSecond float64

	// BurstCapacity is the bucket's maximum size.
	BurstCapacity int

	// OnThrottleAsync is invoked in a detached goroutine whenever Wait had to
	// block for waitTime before a token became available.
	OnThrottleAsync func(waitTime time.Duration)
}

// Limiter is a mutex-protected token bucket over wall-clock time.
type Limiter struct {
	cfg Config

	mu          sync.Mutex
	tokens      float64
	lastRefill  time.Time
	throttled   int64
}

// New constructs a Limiter, applying defaults for zero-valued fields.
func New(cfg Config) *Limiter {
	if cfg.TokensPerSecond <= 0 {
		cfg.TokensPerSecond = 100
	}
	if cfg.BurstCapacity <= 0 {
		cfg.BurstCapacity = 10
	}
	return &Limiter{cfg: cfg, tokens: float64(cfg.BurstCapacity), lastRefill: time.Now()}
}

func (l *Limiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill)
	l.lastRefill = now

	l.tokens += elapsed.Seconds() * l.cfg.TokensPerSecond
	if cap := float64(l.cfg.BurstCapacity); l.tokens > cap {
		l.tokens = cap
	}
}

// TryAcquire attempts to take one token without blocking. It implements the
// spec's non-blocking / Throttled mode.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	l.throttled++
	return false
}

// Wait blocks until a token is available or ctx is done, the default
// blocking mode for a rate-limited admission.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.TryAcquire() {
		return nil
	}

	start := time.Now()
	l.mu.Lock()
	wait := time.Duration((1 - l.tokens) / l.cfg.TokensPerSecond * float64(time.Second))
	l.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if l.TryAcquire() {
				if cb := l.cfg.OnThrottleAsync; cb != nil {
					waited := time.Since(start)
					go safeCall(cb, waited)
				}
				return nil
			}
			timer.Reset(10 * time.Millisecond)
		}
	}
}

// Tokens returns the current number of available tokens, after a refill.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	return l.tokens
}

// ThrottleCount returns how many TryAcquire calls found an empty bucket.
func (l *Limiter) ThrottleCount() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.throttled
}

func safeCall(cb func(time.Duration), d time.Duration) {
	defer func() {
		if recover() != nil {
			metrics.Default().CallbackFailures.Add(1)
		}
	}()
	cb(d)
}
