package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestRetrier_SucceedsOnFirstTry(t *testing.T) {
	r := New(Config{MaxAttempts: 3, BaseDelay: time.Millisecond})
	calls := 0
	attempts, err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestRetrier_RetriesUntilSuccess(t *testing.T) {
	r := New(Config{MaxAttempts: 5, BaseDelay: time.Millisecond, Strategy: Exponential})
	calls := 0
	attempts, err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetrier_ExhaustsAttempts(t *testing.T) {
	r := New(Config{MaxAttempts: 2, BaseDelay: time.Millisecond})
	calls := 0
	attempts, err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, calls) // 1 + MaxAttempts
	assert.Equal(t, 3, attempts)
}

func TestRetrier_NonTransientNeverRetries(t *testing.T) {
	r := New(Config{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		IsTransient: func(error) bool { return false },
	})
	calls := 0
	_, err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestRetrier_OnRetryFiresWithAttemptAndDelay(t *testing.T) {
	var seen []int
	r := New(Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			seen = append(seen, attempt)
		},
	})
	calls := 0
	_, _ = r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	assert.Equal(t, []int{1, 2}, seen)
}

func TestRetrier_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(Config{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond})

	calls := 0
	_, err := r.Execute(ctx, func(ctx context.Context) error {
		calls++
		if calls == 1 {
			cancel()
		}
		return errBoom
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelayFor_EveryStrategyIsNonNegativeAndRespectsMaxDelay(t *testing.T) {
	for _, s := range []Strategy{Exponential, ExponentialJitter, DecorrelatedJitter, Linear, LinearJitter} {
		r := New(Config{BaseDelay: 10 * time.Millisecond, MaxDelay: 20 * time.Millisecond, Strategy: s})
		var st chainState
		for n := 1; n <= 6; n++ {
			d := r.delayFor(n, &st)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, 20*time.Millisecond)
		}
	}
}

func TestDelayFor_DecorrelatedJitterIsIndependentPerChain(t *testing.T) {
	r := New(Config{BaseDelay: 10 * time.Millisecond, Strategy: DecorrelatedJitter})

	var stA, stB chainState
	d1 := r.delayFor(1, &stA)
	_ = r.delayFor(2, &stA)

	// A fresh chain's first delay must not be influenced by stA's prevDelay.
	d2 := r.delayFor(1, &stB)
	assert.LessOrEqual(t, d1, 10*time.Millisecond)
	assert.LessOrEqual(t, d2, 10*time.Millisecond)
}
