package session

import (
	"sync"
	"time"
)

// activityClock is the last-activity timestamp shared by the reader
// (writer side) and the watchdog (reader side), plus the termination
// flag the reader raises on its way out.  Both live under one mutex.
//
// wake carries a pending "activity happened" signal and never blocks
// the sender; done is closed exactly once on termination so a waiting
// watchdog returns immediately.
type activityClock struct {
	mu         sync.Mutex
	last       time.Time
	terminated bool

	wake chan struct{}
	done chan struct{}
}

func newActivityClock(now time.Time) *activityClock {
	return &activityClock{
		last: now,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// touch moves the clock forward to now.  Timestamps older than the
// current value are ignored.
func (c *activityClock) touch(now time.Time) {
	c.mu.Lock()
	if now.After(c.last) {
		c.last = now
	}
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// snapshot returns the last activity time and whether the reader has
// terminated, read atomically with respect to touch and terminate.
func (c *activityClock) snapshot() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.terminated
}

// terminate raises the termination flag and wakes the watchdog.  Safe
// to call more than once.
func (c *activityClock) terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminated {
		return
	}
	c.terminated = true
	close(c.done)
}
