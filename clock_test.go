package framesync

import (
	"testing"
	"time"
)

func TestWallClock(t *testing.T) {
	c := NewWallClock()
	time.Sleep(20 * time.Millisecond)

	before := c.Elapsed()
	if before < 20*time.Millisecond {
		t.Errorf("Expected at least 20ms since construction, got %v", before)
	}
	if after := c.Elapsed(); after < before {
		t.Errorf("Clock went backwards: %v then %v", before, after)
	}

	c.Reset()
	if e := c.Elapsed(); e < 0 || e >= before {
		t.Errorf("Expected Reset to start a new zero point, got %v", e)
	}
}
