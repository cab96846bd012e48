// Package chaos provides a chaos injector, a public testing primitive
// (spec §6) used to exercise retry/breaker/error-mode behavior under
// synthetic failure rates and latency.
package chaos

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// ErrInjected is returned by Execute when the injector decided to fail.
var ErrInjected = errors.New("chaos: injected failure")

// Injector fails a configurable fraction of calls and can add artificial
// delay before every call.
type Injector struct {
	FailureRate     float64 // in [0,1]
	ArtificialDelay time.Duration
}

// New constructs an Injector. failureRate is clamped to [0,1].
func New(failureRate float64, artificialDelay time.Duration) *Injector {
	if failureRate < 0 {
		failureRate = 0
	}
	if failureRate > 1 {
		failureRate = 1
	}
	return &Injector{FailureRate: failureRate, ArtificialDelay: artificialDelay}
}

// ShouldFail reports the injector's random failure decision for one call,
// without sleeping or invoking anything.
func (i *Injector) ShouldFail() bool {
	// #nosec G404 -- non-cryptographic chaos decision.
	return rand.Float64() < i.FailureRate
}

// Execute optionally sleeps for ArtificialDelay, then either returns
// ErrInjected (with probability FailureRate) or invokes action.
func (i *Injector) Execute(ctx context.Context, action func(context.Context) error) error {
	if i.ArtificialDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(i.ArtificialDelay):
		}
	}

	if i.ShouldFail() {
		return ErrInjected
	}
	return action(ctx)
}
