// Package breaker implements the three-state circuit breaker overlay
// (spec §4.3): Closed -> Open -> HalfOpen -> Closed.
//
// Grounded on jonwraymond-toolops/resilience/circuit.go's CircuitBreaker
// (mutex-protected counters, lazy Open->HalfOpen transition computed on read,
// detached OnStateChange callback). Generalized to split the spec's
// SuccessThreshold out of toolops' single HalfOpenMaxRequests field: a
// half-open breaker admits at most SuccessThreshold outstanding probes, so one
// failing probe cannot starve the others needed to close it.
package breaker

import (
	"sync"
	"time"

	"github.com/ygrebnov/rivulet/metrics"
)

// State is the breaker's current phase.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "Open"
	case HalfOpen:
		return "HalfOpen"
	default:
		return "Closed"
	}
}

// Config configures a Breaker.
type Config struct {
	// FailureThreshold is the number of consecutive Closed-state failures
	// that trips the breaker to Open.
	FailureThreshold int

	// SuccessThreshold is the number of HalfOpen-state probe successes
	// required to close the breaker. It also caps concurrently-admitted
	// probes.
	SuccessThreshold int

	// OpenTimeout is how long the breaker stays Open before admitting probes.
	OpenTimeout time.Duration

	// OnStateChange is invoked in a detached goroutine whenever the phase
	// changes; errors are not possible (the callback has no return), but
	// panics are recovered and swallowed, per spec §4.3 "fire-and-forget,
	// errors logged, never propagated".
	OnStateChange func(from, to State)
}

// Breaker is a mutex-protected three-state circuit breaker.
type Breaker struct {
	cfg Config

	mu            sync.Mutex
	state         State
	failures      int
	probeSuccess  int
	probesInFlt   int
	openedAt      time.Time
}

// New constructs a Breaker, applying defaults for zero-valued fields.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	return &Breaker{cfg: cfg}
}

// Allow reports whether a new invocation may begin, admitting the caller as a
// probe if the breaker just transitioned (or already was) HalfOpen. Callers
// that proceed MUST call Report with the outcome exactly once. A refusal is
// reported only through the bool result; this package defines no sentinel
// error for it (the root package's chain turns it into ErrCircuitOpen).
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advanceLocked()

	switch b.state {
	case Open:
		return false
	case HalfOpen:
		if b.probesInFlt >= b.cfg.SuccessThreshold {
			return false
		}
		b.probesInFlt++
		return true
	default: // Closed
		return true
	}
}

// Report records the outcome of an invocation admitted by a prior Allow call.
func (b *Breaker) Report(success bool) {
	b.mu.Lock()

	var from, to State
	changed := false

	switch b.state {
	case Closed:
		if success {
			b.failures = 0
		} else {
			b.failures++
			if b.failures >= b.cfg.FailureThreshold {
				from, to = b.state, Open
				b.state = Open
				b.openedAt = time.Now()
				changed = true
			}
		}

	case HalfOpen:
		b.probesInFlt--
		if success {
			b.probeSuccess++
			if b.probeSuccess >= b.cfg.SuccessThreshold {
				from, to = b.state, Closed
				b.state = Closed
				b.failures = 0
				b.probeSuccess = 0
				changed = true
			}
		} else {
			from, to = b.state, Open
			b.state = Open
			b.openedAt = time.Now()
			b.failures = 0
			b.probeSuccess = 0
			changed = true
		}

	case Open:
		// A report racing a forced-Open transition; ignore.
	}

	cb := b.cfg.OnStateChange
	b.mu.Unlock()

	if changed && cb != nil {
		go safeCall(cb, from, to)
	}
}

// advanceLocked applies the Open->HalfOpen timeout transition. Caller holds mu.
func (b *Breaker) advanceLocked() {
	if b.state == Open && time.Since(b.openedAt) >= b.cfg.OpenTimeout {
		b.state = HalfOpen
		b.probesInFlt = 0
		b.probeSuccess = 0
		cb := b.cfg.OnStateChange
		if cb != nil {
			go safeCall(cb, Open, HalfOpen)
		}
	}
}

// State returns the current phase, resolving a pending Open->HalfOpen
// transition first.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advanceLocked()
	return b.state
}

// Reset forces the breaker back to Closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.state
	b.state = Closed
	b.failures = 0
	b.probeSuccess = 0
	b.probesInFlt = 0
	cb := b.cfg.OnStateChange
	b.mu.Unlock()

	if from != Closed && cb != nil {
		go safeCall(cb, from, Closed)
	}
}

func safeCall(cb func(from, to State), from, to State) {
	defer func() {
		if recover() != nil {
			metrics.Default().CallbackFailures.Add(1)
		}
	}()
	cb(from, to)
}
