package framesync

import "time"

// Clock is the time source used to derive the playback position.
// Implementations must be monotonic between calls to Reset.
type Clock interface {
	// Reset marks a new zero point.
	Reset()
	// Elapsed returns the non-negative time since the last Reset, or since
	// construction if Reset was never called.
	Elapsed() time.Duration
}

// wallClock reads the monotonic component of time.Now.
type wallClock struct {
	start time.Time
}

// NewWallClock returns a Clock backed by the process monotonic clock.
func NewWallClock() Clock {
	return &wallClock{start: time.Now()}
}

func (c *wallClock) Reset() {
	c.start = time.Now()
}

func (c *wallClock) Elapsed() time.Duration {
	d := time.Since(c.start)
	if d < 0 {
		return 0
	}
	return d
}
