package engine

import "sync/atomic"

// Clock is the monotonic logical clock that stamps journaled events.
//
// Seq values are strictly increasing within a generation, so replay
// applies events in the same order they were accepted.
//
// Clock is safe for concurrent use, though only the Run goroutine
// normally calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
