package rivulet

import "github.com/google/uuid"

// WorkItem pairs one source payload with its slot identity, per spec §3.
// index is assigned strictly increasing in source-arrival order and is never
// re-minted across retries: retries increment attempt on the same WorkItem.
type WorkItem[T any] struct {
	index   int
	id      any
	payload T
	attempt int
}

func newWorkItem[T any](index int, payload T) *WorkItem[T] {
	return &WorkItem[T]{index: index, id: uuid.NewString(), payload: payload, attempt: 0}
}

// Index returns the item's monotonic, 0-based arrival position.
func (w *WorkItem[T]) Index() int { return w.index }

// ID returns the item's correlation identifier.
func (w *WorkItem[T]) ID() any { return w.id }

// Payload returns the item's source value.
func (w *WorkItem[T]) Payload() T { return w.payload }

// Attempt returns the 1-based count of invocations made for this item so far.
func (w *WorkItem[T]) Attempt() int { return w.attempt }

// Outcome is the result of one item: exactly one of Value/Err is meaningful,
// distinguished by Failed. At most one Outcome is ever produced per Index
// (spec §3 "at-most-once success").
type Outcome[R any] struct {
	Index    int
	ID       any
	Value    R
	Failed   bool
	Kind     Kind
	Err      error
	Attempts int
}
