package session

import "time"

// Clock computes overall session progress from absolute instants. It is a
// value, not a ticking timer: every method re-derives its answer from the
// recorded instants plus the caller's "now", which makes the math immune to
// missed ticks, scheduler jitter and process suspension.
//
// PauseStartedAt is the zero time unless the session is currently paused.
type Clock struct {
	Start             time.Time
	PausedAccumulated time.Duration
	PauseStartedAt    time.Time
	Target            time.Duration
}

// Elapsed returns session time excluding all paused time, including an
// in-progress pause. A now earlier than recorded instants (device clock
// adjustment) clamps to zero instead of going negative.
func (c Clock) Elapsed(now time.Time) time.Duration {
	paused := c.PausedAccumulated
	if !c.PauseStartedAt.IsZero() {
		if d := now.Sub(c.PauseStartedAt); d > 0 {
			paused += d
		}
	}
	elapsed := now.Sub(c.Start) - paused
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Remaining returns the time left until the target duration, never negative.
func (c Clock) Remaining(now time.Time) time.Duration {
	remaining := c.Target - c.Elapsed(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsDue reports whether the session has reached its target duration.
func (c Clock) IsDue(now time.Time) bool {
	return c.Remaining(now) <= 0
}
