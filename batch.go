package rivulet

import "context"

// BatchParallel groups items into chunks of batchSize (the last chunk may be
// smaller) and runs op once per chunk with bounded parallelism, flattening
// the per-chunk result slices back into one slice aligned with the original
// item order. Each chunk is itself subject to the full resilience chain
// (retry/breaker/rate-limit/timeout), so a failing chunk can be retried as a
// unit without re-running chunks that already succeeded.
//
// There is no teacher file for batch execution; ygrebnov-workers has no
// analogous operator. It is grounded on the same engine/runCollect machinery
// as SelectParallel, applied to a []T payload instead of a T payload.
func BatchParallel[T, R any](ctx context.Context, items []T, batchSize int, op func(context.Context, []T) ([]R, error), opts ...Option) ([]R, error) {
	if batchSize < 1 {
		batchSize = 1
	}

	cfg, err := buildConfig(opts...)
	if err != nil {
		return nil, err
	}

	batches := chunk(items, batchSize)
	batchResults, runErr := runCollect(ctx, cfg, batches, op)

	var flat []R
	for _, br := range batchResults {
		flat = append(flat, br...)
	}
	return flat, runErr
}

func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}
