package breaker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_TripsAfterFailureThreshold(t *testing.T) {
	b := New(Config{FailureThreshold: 3, OpenTimeout: time.Hour})

	for i := 0; i < 3; i++ {
		require.True(t, b.Allow())
		b.Report(false)
	}
	assert.Equal(t, Open, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_ResetsFailureCountOnSuccess(t *testing.T) {
	b := New(Config{FailureThreshold: 2, OpenTimeout: time.Hour})

	require.True(t, b.Allow())
	b.Report(false)
	require.True(t, b.Allow())
	b.Report(true) // resets the streak

	require.True(t, b.Allow())
	b.Report(false)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenAfterTimeoutAdmitsBoundedProbes(t *testing.T) {
	b := New(Config{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: time.Millisecond})

	require.True(t, b.Allow())
	b.Report(false)
	require.Equal(t, Open, b.State())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, HalfOpen, b.State())

	require.True(t, b.Allow())
	require.True(t, b.Allow())
	assert.False(t, b.Allow(), "a third concurrent probe must be refused")
}

func TestBreaker_HalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	b := New(Config{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: time.Millisecond})

	require.True(t, b.Allow())
	b.Report(false)
	time.Sleep(5 * time.Millisecond)

	require.True(t, b.Allow())
	b.Report(true)
	require.True(t, b.Allow())
	b.Report(true)

	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := New(Config{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: time.Millisecond})

	require.True(t, b.Allow())
	b.Report(false)
	time.Sleep(5 * time.Millisecond)

	require.True(t, b.Allow())
	b.Report(false)

	assert.Equal(t, Open, b.State())
}

func TestBreaker_OnStateChangeFiresDetachedNeverUnderLock(t *testing.T) {
	var mu sync.Mutex
	var transitions []string
	done := make(chan struct{}, 8)

	b := New(Config{
		FailureThreshold: 1,
		OpenTimeout:      time.Millisecond,
		OnStateChange: func(from, to State) {
			mu.Lock()
			transitions = append(transitions, from.String()+"->"+to.String())
			mu.Unlock()
			done <- struct{}{}
		},
	})

	require.True(t, b.Allow())
	b.Report(false)
	<-done

	mu.Lock()
	assert.Contains(t, transitions, "Closed->Open")
	mu.Unlock()
}

func TestBreaker_Reset(t *testing.T) {
	b := New(Config{FailureThreshold: 1, OpenTimeout: time.Hour})
	require.True(t, b.Allow())
	b.Report(false)
	require.Equal(t, Open, b.State())

	b.Reset()
	assert.Equal(t, Closed, b.State())
	assert.True(t, b.Allow())
}
