package rivulet

import (
	"errors"
	"fmt"
	"time"

	"github.com/ygrebnov/rivulet/adaptive"
	"github.com/ygrebnov/rivulet/breaker"
	"github.com/ygrebnov/rivulet/progress"
	"github.com/ygrebnov/rivulet/ratelimit"
	"github.com/ygrebnov/rivulet/retry"
)

// ErrorMode selects how terminal item failures are surfaced, per spec §4.9.
type ErrorMode int

const (
	// FailFast cancels the run on the first terminal failure and surfaces a
	// single error.
	FailFast ErrorMode = iota

	// CollectAndContinue accumulates failures; successful results still
	// materialize, and the run completes with an Aggregate error.
	CollectAndContinue

	// BestEffort swallows failures; they are observable only via counters
	// and callbacks.
	BestEffort
)

// Config holds the immutable, shared configuration for one pipeline run
// (spec §3's ExecutionConfig). It is built once by buildConfig and never
// mutated during the run.
type Config struct {
	MaxConcurrency  int
	MaxRetries      int
	BaseDelay       time.Duration
	Backoff         retry.Strategy
	PerItemTimeout  time.Duration // 0 disables the timeout overlay
	ErrorMode       ErrorMode
	OrderedOutput   bool
	ChannelCapacity int // 0 means default (MaxConcurrency*2)

	IsTransient func(error) bool

	CircuitBreaker *breaker.Config  // nil disables the breaker overlay
	RateLimit      *ratelimit.Config // nil disables the rate-limit overlay
	Adaptive       *adaptive.Config  // nil disables adaptive concurrency
	Progress       *progress.Config  // nil disables progress reporting

	OnStart    func(WorkItemInfo)
	OnComplete func(WorkItemInfo, bool /* success */)
	OnRetry    func(WorkItemInfo, attempt int, err error, delay time.Duration)
	OnDrain    func()
	OnThrottle func(waitTime time.Duration)
	OnFallback func(WorkItemInfo, error)
}

// WorkItemInfo is the read-only view of a WorkItem surfaced to lifecycle
// callbacks (spec §5): id, index, and attempt, without exposing the payload
// type parameter so the callback signatures stay monomorphic.
type WorkItemInfo struct {
	Index   int
	ID      any
	Attempt int
}

func defaultConfig() Config {
	return Config{
		MaxConcurrency:  1,
		MaxRetries:      0,
		BaseDelay:       100 * time.Millisecond,
		Backoff:         retry.Exponential,
		ErrorMode:       FailFast,
		OrderedOutput:   false,
		ChannelCapacity: 0,
		IsTransient:     func(err error) bool { return err != nil },
	}
}

func validateConfig(cfg *Config) error {
	if cfg.MaxConcurrency < 1 {
		return fmt.Errorf("%w: MaxConcurrency must be >= 1", ErrConfigErrorSentinel)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("%w: MaxRetries must be >= 0", ErrConfigErrorSentinel)
	}
	if cfg.ChannelCapacity < 0 {
		return fmt.Errorf("%w: ChannelCapacity must be >= 0", ErrConfigErrorSentinel)
	}
	return nil
}

// ErrConfigErrorSentinel is the base error wrapped by every ConfigError.
var ErrConfigErrorSentinel = errors.New(Namespace + ": invalid configuration")
