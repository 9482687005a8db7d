package timex

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestMonotonicClock_WallClockStepsBack(t *testing.T) {
	wall := []time.Time{
		time.UnixMilli(1000),
		time.UnixMilli(2000),
		time.UnixMilli(1500),
		time.UnixMilli(2500),
	}
	i := 0
	c := &MonotonicClock{now: func() time.Time {
		v := wall[i]
		i++
		return v
	}}

	assert.Equal(t, int64(1000), c.NowMilli())
	assert.Equal(t, int64(2000), c.NowMilli())
	assert.Equal(t, int64(2000), c.NowMilli())
	assert.Equal(t, int64(2500), c.NowMilli())
}

func TestProperty_MonotonicClockNeverDecreases(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("readings are non-decreasing for any wall clock sequence", prop.ForAll(
		func(wall []int64) bool {
			if len(wall) == 0 {
				return true
			}
			i := 0
			c := &MonotonicClock{now: func() time.Time {
				v := wall[i%len(wall)]
				i++
				return time.UnixMilli(v)
			}}
			prev := c.NowMilli()
			for range wall {
				cur := c.NowMilli()
				if cur < prev {
					return false
				}
				prev = cur
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(0, 1<<40)),
	))

	properties.TestingRun(t)
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(100)
	assert.Equal(t, int64(100), c.NowMilli())

	c.Advance(50 * time.Millisecond)
	assert.Equal(t, int64(150), c.NowMilli())

	c.Set(10)
	assert.Equal(t, int64(10), c.NowMilli())
}

func TestFromMilli(t *testing.T) {
	got := FromMilli(0, time.UTC)
	assert.True(t, got.Equal(time.Unix(0, 0)))
	assert.Equal(t, time.UTC, got.Location())
}
