// File: selector/clock.go
// Author: momentics <momentics@gmail.com>
//
// Clock abstracts the monotonic elapsed-millisecond source the Selector
// needs to deduct elapsed time from a remaining timeout across
// interrupted-syscall retries. The Selector consumes only this interface
// and the Selectable contract — no other external collaborator.

package selector

import "time"

// Clock reports monotonically increasing milliseconds from an arbitrary,
// fixed reference point. Only deltas between two calls are meaningful.
type Clock interface {
	NowMillis() int64
}

// monotonicClock is the default Clock, backed by the runtime's monotonic
// reading (time.Time carries one internally; Since/Sub never observe wall
// clock adjustments).
type monotonicClock struct {
	epoch time.Time
}

func newMonotonicClock() *monotonicClock {
	return &monotonicClock{epoch: time.Now()}
}

func (c *monotonicClock) NowMillis() int64 {
	return time.Since(c.epoch).Milliseconds()
}
