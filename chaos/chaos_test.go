package chaos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ClampsFailureRate(t *testing.T) {
	assert.Equal(t, 0.0, New(-1, 0).FailureRate)
	assert.Equal(t, 1.0, New(2, 0).FailureRate)
	assert.Equal(t, 0.5, New(0.5, 0).FailureRate)
}

func TestInjector_ShouldFailAlwaysAtRateOne(t *testing.T) {
	i := New(1, 0)
	for n := 0; n < 50; n++ {
		assert.True(t, i.ShouldFail())
	}
}

func TestInjector_ShouldFailNeverAtRateZero(t *testing.T) {
	i := New(0, 0)
	for n := 0; n < 50; n++ {
		assert.False(t, i.ShouldFail())
	}
}

func TestInjector_ExecuteReturnsErrInjectedAtRateOne(t *testing.T) {
	i := New(1, 0)
	called := false
	err := i.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrInjected)
	assert.False(t, called, "action must not run when injector fails the call")
}

func TestInjector_ExecuteInvokesActionAtRateZero(t *testing.T) {
	i := New(0, 0)
	called := false
	err := i.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestInjector_ExecuteSleepsArtificialDelay(t *testing.T) {
	i := New(0, 20*time.Millisecond)
	start := time.Now()
	err := i.Execute(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestInjector_ExecuteRespectsContextCancellationDuringDelay(t *testing.T) {
	i := New(0, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	err := i.Execute(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
