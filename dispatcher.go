package rivulet

import (
	"context"
	"sync"
	"time"

	"github.com/ygrebnov/rivulet/adaptive"
	"github.com/ygrebnov/rivulet/metrics"
)

// admissionGate bounds how many WorkItems may be in flight at once. It is
// grounded on ygrebnov-workers/dispatcher.go's inflight WaitGroup accounting,
// extended with a resizable ceiling so the adaptive-concurrency controller
// (spec §4.5) can raise or lower admission without touching in-flight work.
//
// The gate deliberately uses a condition variable rather than a fixed-size
// semaphore: a plain buffered-channel semaphore cannot shrink once goroutines
// are queued on it, which is exactly what adaptive concurrency needs to do.
// Waiters re-check the ceiling whenever a slot is released or ctx is
// cancelled; a raised ceiling on its own does not wake them.
type admissionGate struct {
	max       int
	active    int
	mu        sync.Mutex
	cond      *sync.Cond
	effective func() int // nil => max
}

func newAdmissionGate(max int, effective func() int) *admissionGate {
	g := &admissionGate{max: max, effective: effective}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func (g *admissionGate) ceiling() int {
	if g.effective == nil {
		return g.max
	}
	if e := g.effective(); e > 0 && e <= g.max {
		return e
	}
	return g.max
}

// acquire blocks until a slot is available or ctx is done.
func (g *admissionGate) acquire(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			g.mu.Lock()
			g.cond.Broadcast()
			g.mu.Unlock()
		case <-done:
		}
	}()

	g.mu.Lock()
	defer g.mu.Unlock()
	for g.active >= g.ceiling() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		g.cond.Wait()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	g.active++
	return nil
}

func (g *admissionGate) release() {
	g.mu.Lock()
	g.active--
	g.cond.Broadcast()
	g.mu.Unlock()
}

// dispatcher reads WorkItems from intake and spawns one goroutine per item,
// gated by an admissionGate whose ceiling tracks the adaptive controller (if
// configured). It mirrors ygrebnov-workers/dispatcher.go's run loop shape.
type dispatcher[T, R any] struct {
	intake    <-chan *WorkItem[T]
	inflight  *sync.WaitGroup
	gate      *admissionGate
	adaptiveC *adaptive.Controller
	w         *worker[T, R]
	emit      func(Outcome[R])
	counts    *metrics.EventCounters
}

func newDispatcher[T, R any](
	intake <-chan *WorkItem[T],
	inflight *sync.WaitGroup,
	gate *admissionGate,
	adaptiveC *adaptive.Controller,
	w *worker[T, R],
	emit func(Outcome[R]),
	counts *metrics.EventCounters,
) *dispatcher[T, R] {
	return &dispatcher[T, R]{intake: intake, inflight: inflight, gate: gate, adaptiveC: adaptiveC, w: w, emit: emit, counts: counts}
}

func (d *dispatcher[T, R]) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-d.intake:
			if !ok {
				return
			}
			if err := d.gate.acquire(ctx); err != nil {
				return
			}
			d.inflight.Add(1)
			if d.counts != nil {
				d.counts.CurrentConcurrency.Add(1)
			}
			go func(it *WorkItem[T]) {
				defer d.inflight.Done()
				defer d.gate.release()
				defer func() {
					if d.counts != nil {
						d.counts.CurrentConcurrency.Add(-1)
					}
				}()
				start := time.Now()
				outcome := d.w.execute(ctx, it)
				if d.adaptiveC != nil {
					d.adaptiveC.Sample(time.Since(start), !outcome.Failed)
				}
				d.emit(outcome)
			}(item)
		}
	}
}
