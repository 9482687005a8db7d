// Package timex provides the millisecond clock used to stamp notes
// Package timex 提供笔记时间戳使用的毫秒时钟
package timex

import (
	"sync"
	"time"
)

// Clock returns epoch milliseconds
// Clock 返回 Unix 毫秒时间戳
type Clock interface {
	NowMilli() int64
}

// MonotonicClock never returns a value smaller than one it has already returned,
// even when the wall clock steps backwards.
// MonotonicClock 保证返回值单调不减，即使系统时间回拨
type MonotonicClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewMonotonicClock creates a clock backed by time.Now
// NewMonotonicClock 创建基于 time.Now 的时钟
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{now: time.Now}
}

// NowMilli returns max(wall clock, last returned value)
// NowMilli 返回 max(系统时间, 上一次返回值)
func (c *MonotonicClock) NowMilli() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ms := c.now().UnixMilli()
	if ms < c.last {
		ms = c.last
	}
	c.last = ms
	return ms
}

// ManualClock is a settable clock for tests and replays
// ManualClock 可手动设置的时钟，用于测试
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a clock starting at ms
func NewManualClock(ms int64) *ManualClock {
	return &ManualClock{now: ms}
}

func (c *ManualClock) NowMilli() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to ms, backwards moves included
func (c *ManualClock) Set(ms int64) {
	c.mu.Lock()
	c.now = ms
	c.mu.Unlock()
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d.Milliseconds()
	c.mu.Unlock()
}

// FromMilli converts epoch milliseconds to time.Time in loc (nil means Local)
// FromMilli 将毫秒时间戳转换为指定时区的 time.Time
func FromMilli(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc)
}
