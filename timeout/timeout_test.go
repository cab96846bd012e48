package timeout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_CompletesBeforeDeadline(t *testing.T) {
	got, err := Execute(context.Background(), 50*time.Millisecond, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestExecute_ZeroDurationDisablesTimeout(t *testing.T) {
	got, err := Execute(context.Background(), 0, func(ctx context.Context) (int, error) {
		time.Sleep(10 * time.Millisecond)
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestExecute_ReturnsErrTimeoutWhenDeadlineElapses(t *testing.T) {
	_, err := Execute(context.Background(), 5*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestExecute_OuterCancellationTakesPrecedenceOverTimeout(t *testing.T) {
	outer, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(outer, time.Hour, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestExecute_PropagatesOperationError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Execute(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}
