// Package retry implements the retry overlay (spec §4.2): a loop that
// re-invokes a failing operation after a backoff-computed delay, up to
// 1+MaxAttempts total tries.
//
// Grounded on jonwraymond-toolops/resilience/retry.go's Retry.Execute shape
// (attempt-indexed switch over strategy, context-aware sleep), generalized
// from three backoff strategies to the five named in the spec and reworked so
// DecorrelatedJitter's carried delay lives on a per-call chainState rather than on
// the Retrier, so it never leaks across unrelated retry chains (spec §9).
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Strategy selects how the delay between attempts grows.
type Strategy int

const (
	// Exponential computes base * 2^(n-1) for the n-th attempt after a failure.
	Exponential Strategy = iota
	// ExponentialJitter computes a uniform random delay in [0, base*2^(n-1)).
	ExponentialJitter
	// DecorrelatedJitter carries the previous delay across attempts of the
	// same chain: uniform in [0, base) on the first retry, then uniform in
	// [base, 3*prev) thereafter.
	DecorrelatedJitter
	// Linear computes base * n.
	Linear
	// LinearJitter computes a uniform random delay in [0, base*n).
	LinearJitter
)

// Config configures a Retrier.
type Config struct {
	// MaxAttempts is the number of retries after the first failure (spec's
	// maxRetries). Total attempts = 1 + MaxAttempts.
	MaxAttempts int

	// BaseDelay is the base used by every backoff strategy.
	BaseDelay time.Duration

	// MaxDelay caps any computed delay, including jitter. Zero means no cap.
	MaxDelay time.Duration

	// Strategy selects the backoff shape.
	Strategy Strategy

	// IsTransient classifies whether err should be retried. Nil means every
	// non-nil error is retried.
	IsTransient func(error) bool

	// OnRetry is invoked (fire-and-forget; caller decides synchronicity) before
	// each sleep, with the 1-based attempt number that just failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retrier executes operations under a fixed Config.
type Retrier struct {
	cfg Config
}

// New constructs a Retrier, applying defaults for zero-valued fields.
func New(cfg Config) *Retrier {
	if cfg.MaxAttempts < 0 {
		cfg.MaxAttempts = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.IsTransient == nil {
		cfg.IsTransient = func(err error) bool { return err != nil }
	}
	return &Retrier{cfg: cfg}
}

// chainState carries DecorrelatedJitter's previous delay across the attempts
// of a single chain. It must be created fresh per item; see spec §9.
type chainState struct {
	prevDelay time.Duration
}

// Execute runs op, retrying per the configured strategy. attempt (returned)
// is the 1-based count of the attempt that finally returned (so 1 means it
// succeeded or exhausted on the first try).
func (r *Retrier) Execute(ctx context.Context, op func(context.Context) error) (attempts int, err error) {
	var st chainState

	for n := 1; ; n++ {
		attempts = n
		err = op(ctx)
		if err == nil {
			return attempts, nil
		}

		if !r.cfg.IsTransient(err) {
			return attempts, err
		}

		if n > r.cfg.MaxAttempts {
			return attempts, err
		}

		delay := r.delayFor(n, &st)
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(n, err, delay)
		}

		select {
		case <-ctx.Done():
			return attempts, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (r *Retrier) delayFor(n int, st *chainState) time.Duration {
	base := r.cfg.BaseDelay
	var d time.Duration

	switch r.cfg.Strategy {
	case Exponential:
		d = base * time.Duration(pow2(n-1))

	case ExponentialJitter:
		upper := base * time.Duration(pow2(n-1))
		d = uniform(upper)

	case DecorrelatedJitter:
		if n == 1 || st.prevDelay == 0 {
			d = uniform(base)
		} else {
			upper := 3 * st.prevDelay
			if upper <= base {
				d = base
			} else {
				d = base + uniform(upper-base)
			}
		}
		st.prevDelay = d

	case Linear:
		d = base * time.Duration(n)

	case LinearJitter:
		d = uniform(base * time.Duration(n))

	default:
		d = base
	}

	if r.cfg.MaxDelay > 0 && d > r.cfg.MaxDelay {
		d = r.cfg.MaxDelay
	}
	return d
}

func pow2(n int) int64 {
	if n < 0 {
		return 1
	}
	return int64(1) << uint(n)
}

// uniform returns a uniform random duration in [0, upper). upper<=0 yields 0.
func uniform(upper time.Duration) time.Duration {
	if upper <= 0 {
		return 0
	}
	// #nosec G404 -- jitter is non-cryptographic timing variance.
	return time.Duration(rand.Int64N(int64(upper)))
}
