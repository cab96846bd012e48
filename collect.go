package rivulet

import (
	"context"
	"errors"
)

// sliceSource turns a slice into a closed-when-exhausted channel, the
// adapter every non-stream operator (SelectParallel, ForEachParallel,
// BatchParallel) uses to drive engine.stream from an in-memory []T, mirroring
// ygrebnov-workers/run_all.go's RunAll, which builds a Workers run from a
// fixed []Task[R] the same way.
func sliceSource[T any](ctx context.Context, items []T) <-chan T {
	ch := make(chan T)
	go func() {
		defer close(ch)
		for _, v := range items {
			select {
			case ch <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// runCollect drains a stream run to completion and returns results indexed
// exactly like the input slice, plus the aggregate error mandated by cfg's
// ErrorMode: FailFast returns the first terminal failure (wrapped with its
// Kind via the returned ItemFailure), CollectAndContinue returns
// Aggregate(failures), and BestEffort returns nil for item failures. If ctx
// was cancelled, the returned error matches both ErrCancelled and ctx.Err(),
// whatever the ErrorMode.
func runCollect[T, R any](ctx context.Context, cfg Config, items []T, op func(context.Context, T) (R, error)) ([]R, error) {
	e := newEngine[T, R](cfg, op)
	source := sliceSource(ctx, items)
	out := e.stream(ctx, source)

	results := make([]R, len(items))
	var failures []*ItemFailure

	for o := range out {
		if o.Index >= 0 && o.Index < len(results) {
			results[o.Index] = o.Value
		}
		if o.Failed {
			failures = append(failures, &ItemFailure{Index: o.Index, Kind: o.Kind, Err: o.Err})
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return results, errors.Join(ErrCancelled, ctxErr)
	}

	switch cfg.ErrorMode {
	case BestEffort:
		return results, nil
	case CollectAndContinue:
		return results, Aggregate(failures)
	default: // FailFast
		if len(failures) == 0 {
			return results, nil
		}
		return results, failures[0]
	}
}
