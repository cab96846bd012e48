package rivulet

import (
	"context"
	"time"

	"github.com/ygrebnov/rivulet/breaker"
	"github.com/ygrebnov/rivulet/metrics"
	"github.com/ygrebnov/rivulet/ratelimit"
	"github.com/ygrebnov/rivulet/retry"
	"github.com/ygrebnov/rivulet/timeout"
)

// assembleChain composes the resilience overlays around op in the order
// mandated by spec §4.7 — outermost to innermost: retry -> circuit-breaker ->
// rate-limiter -> timeout -> user operation. It is grounded on
// jonwraymond-toolops/resilience/executor.go's Executor.Execute, which builds
// exactly this kind of inside-out closure chain; the ordering here is fixed
// to the spec's mandate rather than toolops' own (rate-limiter-outermost)
// default.
//
// Adaptive concurrency is deliberately NOT part of this per-attempt chain:
// per spec §4.5 it "only changes the admission rate" and is enforced once,
// at the dispatcher, before a WorkItem ever reaches assembleChain — see
// dispatcher.go's admissionGate. Putting the rate limiter here, inside retry,
// means every retry attempt re-acquires a token; keeping it outside would let
// retries bypass it entirely and "multiply attempts against the bucket"
// (spec §9), which is exactly the reordering hazard the spec warns about.
// chainFunc is the per-item callable assembleChain produces. onRetry is
// supplied per call (not baked into the chain at assembly time) because it
// needs to close over the calling WorkItem's identity, which the shared
// chain function does not otherwise see.
type chainFunc[T, R any] func(
	ctx context.Context,
	payload T,
	op func(context.Context, T) (R, error),
	onRetry func(attempt int, err error, delay time.Duration),
) (R, int, error)

func assembleChain[T, R any](cfg *Config, br *breaker.Breaker, rl *ratelimit.Limiter, counts *metrics.EventCounters) chainFunc[T, R] {
	isTransient := func(err error) bool { return isRetryableKind(Classify(err, cfg.IsTransient)) }

	return func(
		ctx context.Context,
		payload T,
		op func(context.Context, T) (R, error),
		onRetry func(attempt int, err error, delay time.Duration),
	) (R, int, error) {
		retrier := retry.New(retry.Config{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.BaseDelay,
			Strategy:    cfg.Backoff,
			IsTransient: isTransient,
			OnRetry:     onRetry,
		})

		var result R
		attempts, err := retrier.Execute(ctx, func(ctx context.Context) error {
			var innerErr error
			result, innerErr = invokeBreakerAndRateLimit(ctx, cfg, br, rl, counts, payload, op)
			return innerErr
		})
		return result, attempts, err
	}
}

func invokeBreakerAndRateLimit[T, R any](
	ctx context.Context,
	cfg *Config,
	br *breaker.Breaker,
	rl *ratelimit.Limiter,
	counts *metrics.EventCounters,
	payload T,
	op func(context.Context, T) (R, error),
) (R, error) {
	var zero R

	if br != nil {
		if !br.Allow() {
			return zero, ErrCircuitOpen
		}
		result, err := invokeRateLimitAndTimeout(ctx, cfg, rl, counts, payload, op)
		br.Report(err == nil)
		return result, err
	}
	return invokeRateLimitAndTimeout(ctx, cfg, rl, counts, payload, op)
}

func invokeRateLimitAndTimeout[T, R any](
	ctx context.Context,
	cfg *Config,
	rl *ratelimit.Limiter,
	counts *metrics.EventCounters,
	payload T,
	op func(context.Context, T) (R, error),
) (R, error) {
	var zero R

	if rl != nil {
		if !rl.TryAcquire() {
			if counts != nil {
				counts.ThrottleEvents.Add(1)
			}
			if err := rl.Wait(ctx); err != nil {
				return zero, ErrThrottled
			}
		}
	}

	if cfg.PerItemTimeout > 0 {
		val, err := timeout.Execute(ctx, cfg.PerItemTimeout, func(ctx context.Context) (R, error) {
			return op(ctx, payload)
		})
		if err == timeout.ErrTimeout {
			return val, ErrTimeout
		}
		return val, err
	}

	return op(ctx, payload)
}

// isRetryableKind reports whether the retry overlay should re-invoke for a
// failure already classified as kind. CircuitOpen, Cancelled, SourceFault and
// ConfigError are never retried regardless of the user's isTransient.
func isRetryableKind(k Kind) bool {
	switch k {
	case KindTransient, KindTimeout, KindThrottled, KindUserFault:
		return true
	default:
		return false
	}
}
