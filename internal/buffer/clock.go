package buffer

import "sync/atomic"

// Clock is the topology version counter. Every applied batch takes the next
// value, so a (version, source, target) triple identifies one resolver answer.
//
// Thread-safety: Clock is safe for concurrent use so that Version() can be
// polled from outside the owning goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next version and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current version without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
