// Package timeout implements the per-item timeout overlay (spec §4.6).
//
// Grounded on jonwraymond-toolops/resilience/timeout.go's Timeout.Execute
// (derived context.WithTimeout, select on a done channel vs ctx.Done()).
// Extended to distinguish the overlay's own Timeout outcome from an outer
// Cancelled: the select only reports a timeout when the *outer* context is
// not itself already done.
package timeout

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when the operation does not complete within Timeout
// and the outer context was not itself cancelled.
var ErrTimeout = errors.New("timeout: per-item deadline exceeded")

// Execute runs op under a child context derived from outer with the given
// deadline. If op exits because the derived child context expired (and the
// outer context is still live), Execute returns ErrTimeout; if the outer
// context itself was cancelled, it returns outer's error unchanged.
func Execute[R any](outer context.Context, d time.Duration, op func(context.Context) (R, error)) (R, error) {
	var zero R
	if d <= 0 {
		return op(outer)
	}

	ctx, cancel := context.WithTimeout(outer, d)
	defer cancel()

	type result struct {
		val R
		err error
	}
	done := make(chan result, 1)

	go func() {
		v, err := op(ctx)
		done <- result{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		if outer.Err() != nil {
			return zero, outer.Err()
		}
		return zero, ErrTimeout
	}
}
