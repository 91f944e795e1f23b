package domain_test

import (
	"testing"
	"time"

	"peerpad/internal/modules/collab/domain"
	"peerpad/internal/platform/clock"
)

func TestClockFinishAdoptsRemoteOffset(t *testing.T) {
	t.Parallel()
	wall := clock.NewManual(time.Unix(1_700_000_000, 0))
	c := domain.NewLogicalClock(wall, 15*time.Second)

	base := c.Now()
	c.Start("bob")
	// Instant round trip: the remote is exactly 500 units ahead.
	c.Finish("bob", base+500)

	if got := c.Now() - base; got != 500 {
		t.Fatalf("delta after sync = %d, want 500", got)
	}
	if c.Synced() != 1 {
		t.Fatalf("synced = %d, want 1", c.Synced())
	}
}

func TestClockFinishCompensatesLatency(t *testing.T) {
	t.Parallel()
	wall := clock.NewManual(time.Unix(1_700_000_000, 0))
	c := domain.NewLogicalClock(wall, 15*time.Second)

	base := c.Now()
	c.Start("bob")
	// One second round trip; the remote reported at the midpoint, its clock
	// running 500 units ahead of ours.
	wall.Advance(time.Second)
	c.Finish("bob", base+50+500)

	if got := c.Now() - (base + 100); got != 500 {
		t.Fatalf("delta after latent sync = %d, want 500", got)
	}
}

func TestClockFinishAveragesSamples(t *testing.T) {
	t.Parallel()
	wall := clock.NewManual(time.Unix(1_700_000_000, 0))
	c := domain.NewLogicalClock(wall, 15*time.Second)

	base := c.Now()
	c.Start("bob")
	c.Finish("bob", base+400)
	c.Start("carol")
	c.Finish("carol", c.Now()+200)

	// First sample 400, second 200 relative to the adjusted clock:
	// delta = (400 + 600) / 2.
	if got := c.Now() - base; got != 500 {
		t.Fatalf("averaged delta = %d, want 500", got)
	}
	if c.Synced() != 2 {
		t.Fatalf("synced = %d, want 2", c.Synced())
	}
}

func TestClockIgnoresStrayPong(t *testing.T) {
	t.Parallel()
	wall := clock.NewManual(time.Unix(1_700_000_000, 0))
	c := domain.NewLogicalClock(wall, 15*time.Second)

	base := c.Now()
	c.Finish("nobody", base+9000)

	if c.Synced() != 0 {
		t.Fatalf("stray pong counted as sync")
	}
	if c.Now() != base {
		t.Fatalf("stray pong moved the clock")
	}
}

func TestClockTimedOutFiresOncePerPeriod(t *testing.T) {
	t.Parallel()
	wall := clock.NewManual(time.Unix(1_700_000_000, 0))
	c := domain.NewLogicalClock(wall, 15*time.Second)

	if c.TimedOut() {
		t.Fatalf("fresh clock should not have timed out")
	}
	wall.Advance(15 * time.Second)
	if !c.TimedOut() {
		t.Fatalf("period elapsed, should fire")
	}
	if c.TimedOut() {
		t.Fatalf("second call in the same period should not fire")
	}

	// Two whole periods missed under load still fire only once.
	wall.Advance(30 * time.Second)
	if !c.TimedOut() {
		t.Fatalf("should fire after missed periods")
	}
	if c.TimedOut() {
		t.Fatalf("missed periods must not double-fire")
	}
}
