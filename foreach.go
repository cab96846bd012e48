package rivulet

import "context"

// ForEachParallel runs op over every element of items with bounded
// parallelism for its side effects only, discarding results beyond
// success/failure. It is grounded on ygrebnov-workers/foreach.go's ForEach.
func ForEachParallel[T any](ctx context.Context, items []T, op func(context.Context, T) error, opts ...Option) error {
	cfg, err := buildConfig(opts...)
	if err != nil {
		return err
	}
	wrapped := func(ctx context.Context, v T) (struct{}, error) {
		return struct{}{}, op(ctx, v)
	}
	_, runErr := runCollect(ctx, cfg, items, wrapped)
	return runErr
}

// ForEachParallelStream is ForEachParallel's streaming counterpart, grounded
// on ygrebnov-workers/foreach_stream.go's ForEachStream.
func ForEachParallelStream[T any](ctx context.Context, source <-chan T, op func(context.Context, T) error, opts ...Option) (<-chan Outcome[struct{}], error) {
	cfg, err := buildConfig(opts...)
	if err != nil {
		return nil, err
	}
	wrapped := func(ctx context.Context, v T) (struct{}, error) {
		return struct{}{}, op(ctx, v)
	}
	e := newEngine[T, struct{}](cfg, wrapped)
	return e.stream(ctx, source), nil
}
