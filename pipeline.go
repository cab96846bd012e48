package rivulet

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ygrebnov/rivulet/adaptive"
	"github.com/ygrebnov/rivulet/breaker"
	"github.com/ygrebnov/rivulet/metrics"
	"github.com/ygrebnov/rivulet/progress"
	"github.com/ygrebnov/rivulet/ratelimit"
)

// engine is the unexported orchestration core shared by every public
// operator (SelectParallel, ForEachParallel, BatchParallel and their stream
// variants). It wires together the overlay chain (chain.go), the admission
// gate and dispatcher (dispatcher.go), the optional reorderer (reorderer.go),
// and lifecycle shutdown (lifecycle.go) into one run, generalizing
// ygrebnov-workers' Workers struct (which wired the same collaborators
// behind one fixed-shape API) into a reusable core behind four distinct
// entry points.
type engine[T, R any] struct {
	cfg       Config
	op        func(context.Context, T) (R, error)
	breaker   *breaker.Breaker
	ratelimit *ratelimit.Limiter
	adaptiveC *adaptive.Controller
	progress  *progress.Reporter
	counts    *metrics.EventCounters
}

func newEngine[T, R any](cfg Config, op func(context.Context, T) (R, error)) *engine[T, R] {
	e := &engine[T, R]{cfg: cfg, op: op, counts: metrics.Default()}

	if cfg.CircuitBreaker != nil {
		e.breaker = breaker.New(*cfg.CircuitBreaker)
	}
	if cfg.RateLimit != nil {
		rlCfg := *cfg.RateLimit
		if cfg.OnThrottle != nil {
			rlCfg.OnThrottleAsync = cfg.OnThrottle
		}
		e.ratelimit = ratelimit.New(rlCfg)
	}
	if cfg.Adaptive != nil {
		e.adaptiveC = adaptive.New(*cfg.Adaptive)
	}
	if cfg.Progress != nil {
		e.progress = progress.New(*cfg.Progress)
	}
	return e
}

// stream runs the pipeline over source, emitting one Outcome per item on the
// returned channel, which is closed once the run completes: source
// exhausted (or ctx cancelled) and every admitted item has produced its
// Outcome.
//
// Error-mode handling (spec §4.9): FailFast cancels the run's internal
// context on the first terminal failure, so no further items are admitted;
// items already in flight receive that cancelled context, and their Outcomes
// are still forwarded.
// CollectAndContinue and BestEffort never cancel on their own; callers that
// need an aggregate error (the non-stream operators) accumulate failures
// from the forwarded Outcomes themselves.
func (e *engine[T, R]) stream(ctx context.Context, source <-chan T) <-chan Outcome[R] {
	runCtx, cancel := context.WithCancel(ctx)

	intakeCap := e.cfg.ChannelCapacity
	if intakeCap <= 0 {
		intakeCap = e.cfg.MaxConcurrency * 2
	}
	intake := make(chan *WorkItem[T], intakeCap)
	events := make(chan Outcome[R], intakeCap)
	out := make(chan Outcome[R], intakeCap)

	var nextIndex int64
	var inflight sync.WaitGroup

	var effective func() int
	if e.adaptiveC != nil {
		effective = e.adaptiveC.Effective
	}
	gate := newAdmissionGate(e.cfg.MaxConcurrency, effective)
	chain := assembleChain[T, R](&e.cfg, e.breaker, e.ratelimit, e.counts)

	var adaptiveStop chan struct{}
	if e.adaptiveC != nil {
		adaptiveStop = make(chan struct{})
		go e.adaptiveC.Run(adaptiveStop)
	}

	producerDone := make(chan struct{})
	go func() {
		defer close(producerDone)
		defer close(intake)
		for {
			select {
			case <-runCtx.Done():
				return
			case v, ok := <-source:
				if !ok {
					if e.cfg.OnDrain != nil {
						go safeCallVoid(e.cfg.OnDrain, e.counts)
					}
					if e.counts != nil {
						e.counts.DrainEvents.Add(1)
					}
					return
				}
				idx := int(atomic.AddInt64(&nextIndex, 1)) - 1
				select {
				case intake <- newWorkItem(idx, v):
				case <-runCtx.Done():
					return
				}
			}
		}
	}()

	w := newWorker[T, R](&e.cfg, chain, e.op, e.counts, e.progress)

	var firstFailureOnce sync.Once
	emit := func(o Outcome[R]) {
		if o.Failed && e.cfg.ErrorMode == FailFast {
			firstFailureOnce.Do(cancel)
		}
		if o.Failed && e.cfg.ErrorMode == BestEffort && e.cfg.OnFallback != nil {
			info := WorkItemInfo{Index: o.Index, ID: o.ID}
			go safeCallFallback(e.cfg.OnFallback, info, o.Err, e.counts)
		}
		events <- o
	}

	dsp := newDispatcher[T, R](intake, &inflight, gate, e.adaptiveC, w, emit, e.counts)
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		dsp.run(runCtx)
	}()

	var forwarderWG sync.WaitGroup
	forwarderWG.Add(1)
	if e.cfg.OrderedOutput {
		reord := newReorderer[R](events, out)
		go func() {
			defer forwarderWG.Done()
			reord.run()
		}()
	} else {
		go func() {
			defer forwarderWG.Done()
			for o := range events {
				out <- o
			}
		}()
	}

	lc := newLifecycleCoordinator(
		cancel,
		&inflight,
		func() { close(events) },
		forwarderWG.Wait,
		func() { close(out) },
		func() {
			if e.progress != nil {
				e.progress.Close()
			}
			if adaptiveStop != nil {
				close(adaptiveStop)
			}
		},
	)

	go func() {
		<-producerDone
		<-dispatcherDone
		lc.Close()
	}()

	return out
}

func safeCallVoid(f func(), counts *metrics.EventCounters) {
	defer func() {
		if recover() != nil && counts != nil {
			counts.CallbackFailures.Add(1)
		}
	}()
	f()
}

func safeCallFallback(f func(WorkItemInfo, error), info WorkItemInfo, err error, counts *metrics.EventCounters) {
	defer func() {
		if recover() != nil && counts != nil {
			counts.CallbackFailures.Add(1)
		}
	}()
	f(info, err)
}
