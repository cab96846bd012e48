package adaptive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestController_StartsAtMax(t *testing.T) {
	c := New(Config{Min: 2, Max: 10})
	assert.Equal(t, 10, c.Effective())
}

func TestController_DecreasesOnLowSuccessRate(t *testing.T) {
	c := New(Config{Min: 1, Max: 10, MinSuccessRate: 0.9, TargetLatency: 50 * time.Millisecond})
	for i := 0; i < 20; i++ {
		c.Sample(10*time.Millisecond, i%2 == 0) // 50% success rate
	}
	got := c.Evaluate()
	assert.Less(t, got, 10)
}

func TestController_IncreasesOnGoodLatencyAndSuccess(t *testing.T) {
	c := New(Config{Min: 1, Max: 10, MinSuccessRate: 0.9, TargetLatency: 100 * time.Millisecond})
	c.effective = 5
	for i := 0; i < 20; i++ {
		c.Sample(1*time.Millisecond, true)
	}
	got := c.Evaluate()
	assert.Equal(t, 6, got)
}

func TestController_NeverExceedsMaxOrGoesBelowMin(t *testing.T) {
	c := New(Config{Min: 2, Max: 3, MinSuccessRate: 0.9, TargetLatency: 100 * time.Millisecond})
	for i := 0; i < 20; i++ {
		c.Sample(1*time.Millisecond, true)
	}
	for i := 0; i < 5; i++ {
		assert.LessOrEqual(t, c.Evaluate(), 3)
	}

	c2 := New(Config{Min: 2, Max: 10, MinSuccessRate: 0.9, TargetLatency: time.Millisecond})
	for i := 0; i < 20; i++ {
		c2.Sample(time.Second, false)
	}
	for i := 0; i < 10; i++ {
		assert.GreaterOrEqual(t, c2.Evaluate(), 2)
	}
}

func TestController_EvaluateWithEmptyWindowHolds(t *testing.T) {
	c := New(Config{Min: 1, Max: 5})
	assert.Equal(t, 5, c.Evaluate())
}
