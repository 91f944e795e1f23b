package domain

import (
	"sync"
	"time"

	"peerpad/internal/platform/clock"
)

// Time is a project-time instant in centiseconds. Every member of a project
// stamps edits with it so that concurrent operations can be ordered.
type Time int64

const timeUnitsPerSecond = 100

// LogicalClock derives a shared project time from the local wall clock plus
// a delta learned from ping/pong round trips: now() = wall + delta. The
// remote reports its own now() at roughly the midpoint of the round trip, so
// half the RTT corrects the sample for one-way latency. Each completed round
// trip folds one sample into a running average; the delta is never reset.
//
// Now is read from both the send path and the receive path, so every
// operation takes the one clock lock. The lock is never held across I/O.
type LogicalClock struct {
	mu          sync.Mutex
	wall        clock.Clock
	delta       Time
	synced      int64
	inflight    map[string]Time
	period      Time
	constructed Time
	fired       int64
}

func NewLogicalClock(wall clock.Clock, period time.Duration) *LogicalClock {
	c := &LogicalClock{
		wall:     wall,
		inflight: make(map[string]Time),
		period:   durationToTime(period),
	}
	c.constructed = c.localTime()
	return c
}

// Now returns the current project time.
func (c *LogicalClock) Now() Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localTime() + c.delta
}

// Start records the send time of a ping to peer.
func (c *LogicalClock) Start(peer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[peer] = c.localTime() + c.delta
}

// Finish completes a ping round trip with the remote's reported project time
// and folds one new delta sample into the running average. A pong with no
// matching ping is a stray and is ignored.
func (c *LogicalClock) Finish(peer string, remote Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	started, ok := c.inflight[peer]
	if !ok {
		return
	}
	delete(c.inflight, peer)

	rtt := c.localTime() + c.delta - started
	sample := remote - c.localTime() + rtt/2
	c.delta = (Time(c.synced)*c.delta + sample) / Time(c.synced+1)
	c.synced++
}

// Synced reports how many round trips have contributed to the delta.
func (c *LogicalClock) Synced() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.synced
}

// TimedOut reports true at most once per configured period. The period index
// is tracked as a monotonic counter, so calls missed under load neither
// double-fire nor shift later firings.
func (c *LogicalClock) TimedOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.period <= 0 {
		return false
	}
	count := (c.localTime() + c.delta - c.constructed) / c.period
	if int64(count) > c.fired {
		c.fired = int64(count)
		return true
	}
	return false
}

func (c *LogicalClock) localTime() Time {
	return Time(c.wall.Now().UnixMilli() / (1000 / timeUnitsPerSecond))
}

func durationToTime(d time.Duration) Time {
	return Time(d.Milliseconds() / (1000 / timeUnitsPerSecond))
}
