package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_EmitsOnInterval(t *testing.T) {
	var mu sync.Mutex
	var snaps []Snapshot

	r := New(Config{
		ReportInterval: 10 * time.Millisecond,
		OnProgress: func(s Snapshot) {
			mu.Lock()
			snaps = append(snaps, s)
			mu.Unlock()
		},
	})
	r.Add(5)

	time.Sleep(35 * time.Millisecond)
	r.Close()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, snaps)
	for _, s := range snaps {
		assert.Equal(t, int64(5), s.ItemsCompleted)
	}
}

func TestReporter_CloseEmitsFinalSnapshot(t *testing.T) {
	var mu sync.Mutex
	count := 0

	r := New(Config{
		ReportInterval: time.Hour,
		OnProgress: func(s Snapshot) {
			mu.Lock()
			count++
			mu.Unlock()
		},
	})
	r.Add(3)
	r.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count, "Close must emit exactly one final snapshot even with no prior ticks")
}

func TestReporter_CloseIsIdempotent(t *testing.T) {
	r := New(Config{ReportInterval: time.Hour})
	r.Close()
	assert.NotPanics(t, func() { r.Close() })
}

func TestReporter_HasTotalComputesPercentAndRemaining(t *testing.T) {
	var mu sync.Mutex
	var last Snapshot

	r := New(Config{
		ReportInterval: time.Hour,
		HasTotal:       true,
		TotalItems:     10,
		OnProgress: func(s Snapshot) {
			mu.Lock()
			last = s
			mu.Unlock()
		},
	})
	r.Add(5)
	time.Sleep(5 * time.Millisecond)
	r.Close()

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, last.TotalItems)
	assert.Equal(t, int64(10), *last.TotalItems)
	require.NotNil(t, last.PercentComplete)
	assert.InDelta(t, 50.0, *last.PercentComplete, 0.01)
}

func TestReporter_WithoutTotalLeavesPercentNil(t *testing.T) {
	var mu sync.Mutex
	var last Snapshot

	r := New(Config{
		ReportInterval: time.Hour,
		OnProgress: func(s Snapshot) {
			mu.Lock()
			last = s
			mu.Unlock()
		},
	})
	r.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Nil(t, last.TotalItems)
	assert.Nil(t, last.PercentComplete)
}

func TestReporter_NilOnProgressIsSafe(t *testing.T) {
	r := New(Config{ReportInterval: 5 * time.Millisecond})
	r.Add(1)
	time.Sleep(10 * time.Millisecond)
	assert.NotPanics(t, r.Close)
}

func TestReporter_PanicInCallbackIsRecovered(t *testing.T) {
	r := New(Config{
		ReportInterval: time.Hour,
		OnProgress:     func(s Snapshot) { panic("boom") },
	})
	assert.NotPanics(t, r.Close)
}
