package rivulet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Task is the unit of work the engine schedules. Implementations are produced
// by the TaskFunc/TaskValue/TaskError adapters below; callers rarely implement
// it directly.
type Task[R any] interface {
	// Run executes the task, honoring ctx cancellation.
	Run(ctx context.Context) (R, error)

	// SendResult reports whether Run's result should be published on the
	// results channel. Error-only tasks (TaskError) report false.
	SendResult() bool

	// ID returns the task's correlation identifier. The TaskFunc, TaskValue
	// and TaskError adapters return nil; a task returned by WithID returns
	// its id, or a google/uuid string assigned on first access if id was nil.
	ID() any

	// WithID returns a copy of the task tagged with id, for correlation.
	WithID(id any) Task[R]
}

// TaskFunc adapts a func(context.Context) (R, error) into a Task.
type TaskFunc[R any] func(context.Context) (R, error)

func (f TaskFunc[R]) Run(ctx context.Context) (R, error) { return f(ctx) }
func (f TaskFunc[R]) SendResult() bool                   { return true }
func (f TaskFunc[R]) ID() any                            { return nil }
func (f TaskFunc[R]) WithID(id any) Task[R]              { return &identifiedTask[R]{inner: f, id: id} }

// TaskValue adapts a func(context.Context) R (no error) into a Task.
type TaskValue[R any] func(context.Context) R

func (f TaskValue[R]) Run(ctx context.Context) (R, error) { return f(ctx), nil }
func (f TaskValue[R]) SendResult() bool                   { return true }
func (f TaskValue[R]) ID() any                            { return nil }
func (f TaskValue[R]) WithID(id any) Task[R]              { return &identifiedTask[R]{inner: f, id: id} }

// TaskError adapts a func(context.Context) error into a Task. Its result type
// is always the zero value of R and is never published to the results channel.
type TaskError[R any] func(context.Context) error

func (f TaskError[R]) Run(ctx context.Context) (R, error) {
	var zero R
	return zero, f(ctx)
}
func (f TaskError[R]) SendResult() bool      { return false }
func (f TaskError[R]) ID() any               { return nil }
func (f TaskError[R]) WithID(id any) Task[R] { return &identifiedTask[R]{inner: f, id: id} }

// identifiedTask decorates an inner Task with an explicit correlation ID.
type identifiedTask[R any] struct {
	inner Task[R]
	id    any
}

func (t *identifiedTask[R]) Run(ctx context.Context) (R, error) { return t.inner.Run(ctx) }
func (t *identifiedTask[R]) SendResult() bool                   { return t.inner.SendResult() }
func (t *identifiedTask[R]) ID() any {
	if t.id == nil {
		t.id = uuid.NewString()
	}
	return t.id
}
func (t *identifiedTask[R]) WithID(id any) Task[R] { return &identifiedTask[R]{inner: t.inner, id: id} }

// taskResult carries one Task's outcome across the goroutine boundary in
// runGuarded, so the caller never reads/writes the same memory the inner
// goroutine is still writing to.
type taskResult[R any] struct {
	value R
	err   error
}

// runGuarded executes t.Run, converting ctx cancellation and panics into
// errors rather than letting a panic escape the worker goroutine, mirroring
// the teacher's recover-and-wrap pattern for every invocation style. The
// inner goroutine publishes only through the buffered done channel: if ctx
// is cancelled first, runGuarded returns without ever touching the result
// the (possibly still-running) goroutine eventually produces.
func runGuarded[R any](ctx context.Context, t Task[R]) (R, error) {
	done := make(chan taskResult[R], 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				var zero R
				done <- taskResult[R]{value: zero, err: fmt.Errorf("%w: %v", ErrTaskPanicked, p)}
			}
		}()
		val, err := t.Run(ctx)
		done <- taskResult[R]{value: val, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero R
		return zero, ErrCancelled
	case r := <-done:
		return r.value, r.err
	}
}
