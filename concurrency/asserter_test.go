package concurrency

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsserter_EnterExitTracksCurrent(t *testing.T) {
	var a Asserter
	assert.Equal(t, int64(0), a.Current())

	tok := a.Enter()
	assert.Equal(t, int64(1), a.Current())

	tok.Exit()
	assert.Equal(t, int64(0), a.Current())
}

func TestAsserter_MaxTracksHighWaterMark(t *testing.T) {
	var a Asserter
	t1 := a.Enter()
	t2 := a.Enter()
	t3 := a.Enter()
	assert.Equal(t, int64(3), a.Max())

	t3.Exit()
	t2.Exit()
	assert.Equal(t, int64(3), a.Max(), "max must not decrease when concurrency drops")

	a.Enter()
	assert.Equal(t, int64(3), a.Max(), "max must not increase below the prior peak")
	t1.Exit()
}

func TestAsserter_ConcurrentUseNeverExceedsBound(t *testing.T) {
	var a Asserter
	const bound = 8
	sem := make(chan struct{}, bound)
	var wg sync.WaitGroup

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			tok := a.Enter()
			defer tok.Exit()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, a.Max(), int64(bound))
	assert.Equal(t, int64(0), a.Current())
}
