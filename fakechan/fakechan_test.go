package fakechan

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChan_WriteReadFIFO(t *testing.T) {
	c := New[int](0)
	c.Write(1)
	c.Write(2)
	c.Write(3)

	for _, want := range []int{1, 2, 3} {
		v, ok := c.Read()
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	assert.Equal(t, int64(3), c.WriteCount())
	assert.Equal(t, int64(3), c.ReadCount())
}

func TestChan_ReadBlocksUntilWrite(t *testing.T) {
	c := New[string](0)
	result := make(chan string, 1)
	go func() {
		v, ok := c.Read()
		require.True(t, ok)
		result <- v
	}()

	time.Sleep(5 * time.Millisecond)
	select {
	case <-result:
		t.Fatal("Read returned before any Write")
	default:
	}

	c.Write("hello")
	select {
	case v := <-result:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("Read never unblocked after Write")
	}
}

func TestChan_BoundedWriteBlocksAtCapacity(t *testing.T) {
	c := New[int](1)
	c.Write(1)

	wrote := make(chan struct{})
	go func() {
		c.Write(2)
		close(wrote)
	}()

	time.Sleep(5 * time.Millisecond)
	select {
	case <-wrote:
		t.Fatal("second Write should block while at capacity")
	default:
	}

	_, ok := c.Read()
	require.True(t, ok)

	select {
	case <-wrote:
	case <-time.After(time.Second):
		t.Fatal("second Write never unblocked after a Read freed capacity")
	}
}

func TestChan_CompleteDrainsThenReportsFalse(t *testing.T) {
	c := New[int](0)
	c.Write(1)
	c.Write(2)
	c.Complete()

	v, ok := c.Read()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = c.Read()
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = c.Read()
	assert.False(t, ok)
}

func TestChan_WriteAfterCompletePanics(t *testing.T) {
	c := New[int](0)
	c.Complete()
	assert.Panics(t, func() { c.Write(1) })
}

func TestChan_CompleteUnblocksPendingReaders(t *testing.T) {
	c := New[int](0)
	var wg sync.WaitGroup
	oks := make([]bool, 4)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok := c.Read()
			oks[i] = ok
		}(i)
	}

	time.Sleep(5 * time.Millisecond)
	c.Complete()
	wg.Wait()

	for _, ok := range oks {
		assert.False(t, ok)
	}
}
