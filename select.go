package rivulet

import "context"

// SelectParallel applies op to every element of items with bounded
// parallelism and returns results aligned with the input slice (result[i]
// corresponds to items[i]), regardless of completion order. It is grounded
// on ygrebnov-workers/map.go's Map, generalized from that file's single
// fixed concurrency knob to the full overlay-configurable engine.
func SelectParallel[T, R any](ctx context.Context, items []T, op func(context.Context, T) (R, error), opts ...Option) ([]R, error) {
	cfg, err := buildConfig(opts...)
	if err != nil {
		return nil, err
	}
	return runCollect(ctx, cfg, items, op)
}

// SelectParallelStream is SelectParallel's streaming counterpart, consuming
// an already-open source and emitting one Outcome per item as soon as it
// completes. It is grounded on ygrebnov-workers/map_stream.go's MapStream.
func SelectParallelStream[T, R any](ctx context.Context, source <-chan T, op func(context.Context, T) (R, error), opts ...Option) (<-chan Outcome[R], error) {
	cfg, err := buildConfig(opts...)
	if err != nil {
		return nil, err
	}
	e := newEngine[T, R](cfg, op)
	return e.stream(ctx, source), nil
}
