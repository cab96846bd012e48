package rivulet

import (
	"time"

	"github.com/ygrebnov/rivulet/adaptive"
	"github.com/ygrebnov/rivulet/breaker"
	"github.com/ygrebnov/rivulet/progress"
	"github.com/ygrebnov/rivulet/ratelimit"
	"github.com/ygrebnov/rivulet/retry"
)

// Option configures a Config, following the teacher's functional-options
// shape (options.go's Option func(*configOptions)).
type Option func(*Config)

// WithMaxConcurrency sets the worker pool's maximum size (>= 1).
func WithMaxConcurrency(n int) Option { return func(c *Config) { c.MaxConcurrency = n } }

// WithRetries sets the retry overlay's attempt count and backoff.
func WithRetries(maxRetries int, baseDelay time.Duration, strategy retry.Strategy) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.BaseDelay = baseDelay
		c.Backoff = strategy
	}
}

// WithPerItemTimeout enables the timeout overlay.
func WithPerItemTimeout(d time.Duration) Option { return func(c *Config) { c.PerItemTimeout = d } }

// WithErrorMode selects FailFast, CollectAndContinue, or BestEffort.
func WithErrorMode(m ErrorMode) Option { return func(c *Config) { c.ErrorMode = m } }

// WithOrderedOutput enables the reorder buffer so results are emitted in
// ascending index order.
func WithOrderedOutput() Option { return func(c *Config) { c.OrderedOutput = true } }

// WithChannelCapacity sets the request channel's buffer size.
func WithChannelCapacity(n int) Option { return func(c *Config) { c.ChannelCapacity = n } }

// WithIsTransient overrides the default retry classifier.
func WithIsTransient(f func(error) bool) Option { return func(c *Config) { c.IsTransient = f } }

// WithCircuitBreaker enables the circuit-breaker overlay.
func WithCircuitBreaker(cfg breaker.Config) Option {
	return func(c *Config) { c.CircuitBreaker = &cfg }
}

// WithRateLimit enables the rate-limiter overlay.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(c *Config) { c.RateLimit = &cfg }
}

// WithAdaptiveConcurrency enables the adaptive-concurrency controller.
func WithAdaptiveConcurrency(cfg adaptive.Config) Option {
	return func(c *Config) { c.Adaptive = &cfg }
}

// WithProgress enables the periodic progress reporter.
func WithProgress(cfg progress.Config) Option {
	return func(c *Config) { c.Progress = &cfg }
}

// WithOnStart registers the per-item start callback.
func WithOnStart(f func(WorkItemInfo)) Option { return func(c *Config) { c.OnStart = f } }

// WithOnComplete registers the per-item completion callback.
func WithOnComplete(f func(WorkItemInfo, bool)) Option {
	return func(c *Config) { c.OnComplete = f }
}

// WithOnRetry registers the per-retry callback.
func WithOnRetry(f func(WorkItemInfo, int, error, time.Duration)) Option {
	return func(c *Config) { c.OnRetry = f }
}

// WithOnDrain registers the drain callback (spec §9 open question (a): fired
// once, when the source channel is observed closed, not per batch).
func WithOnDrain(f func()) Option { return func(c *Config) { c.OnDrain = f } }

// WithOnThrottle registers the rate-limiter throttle callback.
func WithOnThrottle(f func(time.Duration)) Option { return func(c *Config) { c.OnThrottle = f } }

// WithOnFallback registers the callback invoked when BestEffort swallows a
// terminal failure.
func WithOnFallback(f func(WorkItemInfo, error)) Option {
	return func(c *Config) { c.OnFallback = f }
}

// buildConfig applies opts over defaultConfig and validates the result.
func buildConfig(opts ...Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if err := validateConfig(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
