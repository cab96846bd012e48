package metrics

import (
	"sync"
	"time"
)

// EventCounters is the fixed, process-wide set of named instruments described
// in spec §4.8. It is a singleton (spec §9 "global counter singleton"):
// per-run statistics must be computed as deltas between snapshots taken at
// run start and end, never read as absolute values.
type EventCounters struct {
	ItemsStarted    *BasicCounter
	ItemsCompleted  *BasicCounter
	RetriesTotal    *BasicCounter
	FailuresTotal   *BasicCounter
	ThrottleEvents  *BasicCounter
	DrainEvents     *BasicCounter
	CallbackFailures *BasicCounter

	CurrentConcurrency *BasicUpDownCounter
	ErrorRate          *BasicHistogram
	ItemsPerSecond     *BasicHistogram
}

var (
	defaultOnce      sync.Once
	defaultCounters  *EventCounters
	defaultProvider  *BasicProvider
)

// Default returns the process-wide EventCounters singleton, constructing it
// on first use from a package-level BasicProvider.
func Default() *EventCounters {
	defaultOnce.Do(func() {
		defaultProvider = NewBasicProvider()
		defaultCounters = newEventCounters(defaultProvider)
	})
	return defaultCounters
}

func newEventCounters(p *BasicProvider) *EventCounters {
	return &EventCounters{
		ItemsStarted:       p.Counter("items-started").(*BasicCounter),
		ItemsCompleted:     p.Counter("items-completed").(*BasicCounter),
		RetriesTotal:       p.Counter("retries-total").(*BasicCounter),
		FailuresTotal:      p.Counter("failures-total").(*BasicCounter),
		ThrottleEvents:     p.Counter("throttle-events").(*BasicCounter),
		DrainEvents:        p.Counter("drain-events").(*BasicCounter),
		CallbackFailures:   p.Counter("callback-failures").(*BasicCounter),
		CurrentConcurrency: p.UpDownCounter("current-concurrency").(*BasicUpDownCounter),
		ErrorRate:          p.Histogram("error-rate").(*BasicHistogram),
		ItemsPerSecond:     p.Histogram("items-per-second").(*BasicHistogram),
	}
}

// Snapshot is a point-in-time read of every EventCounters instrument,
// suitable for differencing against a later Snapshot to isolate one run's
// statistics from the shared process-wide totals.
type Snapshot struct {
	ItemsStarted     int64
	ItemsCompleted   int64
	RetriesTotal     int64
	FailuresTotal    int64
	ThrottleEvents   int64
	DrainEvents      int64
	CallbackFailures int64
	Taken            time.Time
}

// Snapshot captures the current counter values.
func (c *EventCounters) Snapshot() Snapshot {
	return Snapshot{
		ItemsStarted:     c.ItemsStarted.Snapshot(),
		ItemsCompleted:   c.ItemsCompleted.Snapshot(),
		RetriesTotal:     c.RetriesTotal.Snapshot(),
		FailuresTotal:    c.FailuresTotal.Snapshot(),
		ThrottleEvents:   c.ThrottleEvents.Snapshot(),
		DrainEvents:      c.DrainEvents.Snapshot(),
		CallbackFailures: c.CallbackFailures.Snapshot(),
		Taken:            time.Now(),
	}
}

// Delta returns a Snapshot holding end minus start for every counter,
// isolating one run's contribution to the shared process-wide totals.
func Delta(start, end Snapshot) Snapshot {
	return Snapshot{
		ItemsStarted:     end.ItemsStarted - start.ItemsStarted,
		ItemsCompleted:   end.ItemsCompleted - start.ItemsCompleted,
		RetriesTotal:     end.RetriesTotal - start.RetriesTotal,
		FailuresTotal:    end.FailuresTotal - start.FailuresTotal,
		ThrottleEvents:   end.ThrottleEvents - start.ThrottleEvents,
		DrainEvents:      end.DrainEvents - start.DrainEvents,
		CallbackFailures: end.CallbackFailures - start.CallbackFailures,
		Taken:            end.Taken,
	}
}
