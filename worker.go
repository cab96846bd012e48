package rivulet

import (
	"context"
	"fmt"
	"time"

	"github.com/ygrebnov/rivulet/metrics"
	"github.com/ygrebnov/rivulet/progress"
)

// worker executes one WorkItem through the resilience chain and produces
// exactly one Outcome. It is grounded on ygrebnov-workers/worker.go's
// execute method (recover-wrap, send-on-channel shape) generalized from a
// bare R/error pair to a typed Outcome carrying Kind and attempt count.
type worker[T, R any] struct {
	cfg    *Config
	chain  chainFunc[T, R]
	op     func(context.Context, T) (R, error)
	counts *metrics.EventCounters
	prog   *progress.Reporter
}

func newWorker[T, R any](
	cfg *Config,
	chain chainFunc[T, R],
	op func(context.Context, T) (R, error),
	counts *metrics.EventCounters,
	prog *progress.Reporter,
) *worker[T, R] {
	return &worker[T, R]{cfg: cfg, chain: chain, op: op, counts: counts, prog: prog}
}

// execute runs item through the chain and returns its Outcome. It never
// panics: a panic escaping the user operation is converted into an
// ErrTaskPanicked failure, matching the teacher's worker.execute recover.
func (w *worker[T, R]) execute(ctx context.Context, item *WorkItem[T]) (outcome Outcome[R]) {
	info := WorkItemInfo{Index: item.Index(), ID: item.ID(), Attempt: item.Attempt()}

	defer func() {
		if p := recover(); p != nil {
			outcome = Outcome[R]{
				Index:  item.index,
				ID:     item.id,
				Failed: true,
				Kind:   KindUserFault,
				Err:    fmt.Errorf("%w: %v", ErrTaskPanicked, p),
			}
		}
		w.emitComplete(info, outcome)
	}()

	if w.counts != nil {
		w.counts.ItemsStarted.Add(1)
	}

	w.emitStart(info)

	onRetry := func(attempt int, retryErr error, delay time.Duration) {
		if w.counts != nil {
			w.counts.RetriesTotal.Add(1)
		}
		if w.cfg.OnRetry != nil {
			go safeCallRetry(w.cfg.OnRetry, info, attempt, retryErr, delay, w.counts)
		}
	}

	start := time.Now()
	val, attempts, err := w.chain(ctx, item.payload, func(ctx context.Context, payload T) (R, error) {
		item.attempt++
		task := TaskFunc[R](func(ctx context.Context) (R, error) { return w.op(ctx, payload) })
		return runGuarded[R](ctx, task)
	}, onRetry)
	latency := time.Since(start)

	if w.counts != nil {
		w.counts.ItemsPerSecond.Record(1 / latency.Seconds())
		if err == nil {
			w.counts.ItemsCompleted.Add(1)
			w.counts.ErrorRate.Record(0)
		} else {
			w.counts.ErrorRate.Record(1)
			w.counts.FailuresTotal.Add(1)
		}
	}
	if w.prog != nil {
		w.prog.Add(1)
	}

	if err != nil {
		kind := Classify(err, w.cfg.IsTransient)
		return Outcome[R]{Index: item.index, ID: item.id, Failed: true, Kind: kind, Err: err, Attempts: attempts}
	}

	return Outcome[R]{Index: item.index, ID: item.id, Value: val, Attempts: attempts}
}

func (w *worker[T, R]) emitStart(info WorkItemInfo) {
	if w.cfg.OnStart == nil {
		return
	}
	go safeCallInfo(w.cfg.OnStart, info, w.counts)
}

func (w *worker[T, R]) emitComplete(info WorkItemInfo, o Outcome[R]) {
	if w.cfg.OnComplete == nil {
		return
	}
	go safeCallComplete(w.cfg.OnComplete, info, !o.Failed, w.counts)
}

// safeCallInfo, safeCallComplete and safeCallRetry recover panics from user
// callbacks so a misbehaving callback can never take down a worker goroutine,
// mirroring the detached-callback discipline used throughout
// breaker/ratelimit/progress. Each counts the fault in CallbackFailures
// (spec §4.8/§5) rather than discarding it silently.
func safeCallInfo(f func(WorkItemInfo), info WorkItemInfo, counts *metrics.EventCounters) {
	defer func() {
		if recover() != nil && counts != nil {
			counts.CallbackFailures.Add(1)
		}
	}()
	f(info)
}

func safeCallComplete(f func(WorkItemInfo, bool), info WorkItemInfo, success bool, counts *metrics.EventCounters) {
	defer func() {
		if recover() != nil && counts != nil {
			counts.CallbackFailures.Add(1)
		}
	}()
	f(info, success)
}

func safeCallRetry(f func(WorkItemInfo, int, error, time.Duration), info WorkItemInfo, attempt int, err error, delay time.Duration, counts *metrics.EventCounters) {
	defer func() {
		if recover() != nil && counts != nil {
			counts.CallbackFailures.Add(1)
		}
	}()
	f(info, attempt, err, delay)
}
