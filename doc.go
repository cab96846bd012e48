// Package rivulet provides bounded-parallel asynchronous processing over
// item streams: a worker pool overlaid with retry, circuit-breaker,
// rate-limiter, timeout, and adaptive-concurrency resilience policies, with
// ordered or unordered result dispatch.
//
// Entry points
//   - SelectParallel / SelectParallelStream: apply a fallible transform to
//     every item, collecting or streaming one Outcome per item.
//   - ForEachParallel / ForEachParallelStream: run an operation for its side
//     effects only.
//   - BatchParallel: group items into fixed-size chunks, each processed (and
//     retried) as a unit.
//
// Configuration
// Every entry point takes functional Options (see options.go); unset fields
// fall back to defaultConfig's values. Overlays are opt-in: a Config with no
// CircuitBreaker, RateLimit, or Adaptive set runs with just the worker pool,
// retry, and optional per-item timeout.
//
// Error taxonomy
// Every failure carries a Kind (errors.go) classifying it as Transient,
// Cancelled, Timeout, CircuitOpen, Throttled, UserFault, SourceFault, or
// ConfigError. ErrorMode (FailFast, CollectAndContinue, BestEffort)
// controls how per-item failures propagate into the run's returned error.
//
// Observability
// metrics.Default() exposes a process-wide EventCounters singleton; take a
// Snapshot before and after a run and pass both to metrics.Delta to isolate
// that run's contribution. progress.Reporter emits periodic Snapshots via a
// callback for long streams.
//
// Testing primitives
// vtime, chaos, concurrency, and fakechan are standalone packages for tests
// that need deterministic delays, injected failures, concurrency-bound
// assertions, or a FIFO channel with write/read telemetry.
package rivulet
