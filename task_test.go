package rivulet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskFunc_RunReturnsValueAndSendsResult(t *testing.T) {
	task := TaskFunc[int](func(ctx context.Context) (int, error) { return 42, nil })
	v, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, task.SendResult())
}

func TestTaskValue_RunNeverErrors(t *testing.T) {
	task := TaskValue[string](func(ctx context.Context) string { return "ok" })
	v, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.True(t, task.SendResult())
}

func TestTaskError_RunReturnsZeroValueAndSuppressesResult(t *testing.T) {
	boom := errors.New("boom")
	task := TaskError[int](func(ctx context.Context) error { return boom })
	v, err := task.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, v)
	assert.False(t, task.SendResult())
}

func TestTask_WithIDAssignsAndPreservesID(t *testing.T) {
	task := TaskFunc[int](func(ctx context.Context) (int, error) { return 1, nil })
	withID := task.WithID("correlation-1")
	assert.Equal(t, "correlation-1", withID.ID())

	v, err := withID.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestTask_IDAutoAssignsUUIDWhenUnset(t *testing.T) {
	task := TaskFunc[int](func(ctx context.Context) (int, error) { return 0, nil })
	withID := task.WithID(nil)

	id1 := withID.ID()
	id2 := withID.ID()
	require.NotNil(t, id1)
	assert.Equal(t, id1, id2, "ID must be stable across repeated calls once assigned")
}

func TestRunGuarded_ReturnsResultOnSuccess(t *testing.T) {
	task := TaskFunc[int](func(ctx context.Context) (int, error) { return 7, nil })
	v, err := runGuarded[int](context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestRunGuarded_PropagatesTaskError(t *testing.T) {
	boom := errors.New("boom")
	task := TaskFunc[int](func(ctx context.Context) (int, error) { return 0, boom })
	_, err := runGuarded[int](context.Background(), task)
	assert.ErrorIs(t, err, boom)
}

func TestRunGuarded_RecoversPanicIntoErrTaskPanicked(t *testing.T) {
	task := TaskFunc[int](func(ctx context.Context) (int, error) { panic("kaboom") })
	_, err := runGuarded[int](context.Background(), task)
	assert.ErrorIs(t, err, ErrTaskPanicked)
}

func TestRunGuarded_ReturnsCancelledWhenContextDoneFirst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := TaskFunc[int](func(ctx context.Context) (int, error) {
		<-time.After(50 * time.Millisecond)
		return 1, nil
	})
	_, err := runGuarded[int](ctx, task)
	assert.ErrorIs(t, err, ErrCancelled)
}
