package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_Elapsed_NoPauses(t *testing.T) {
	start := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	c := Clock{Start: start, Target: 10 * time.Minute}

	assert.Equal(t, time.Duration(0), c.Elapsed(start))
	assert.Equal(t, 90*time.Second, c.Elapsed(start.Add(90*time.Second)))
	assert.Equal(t, 10*time.Minute, c.Remaining(start))
	assert.Equal(t, 8*time.Minute, c.Remaining(start.Add(2*time.Minute)))
}

func TestClock_Elapsed_AccumulatedPauses(t *testing.T) {
	start := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	c := Clock{
		Start:             start,
		PausedAccumulated: 3 * time.Minute,
		Target:            10 * time.Minute,
	}

	// 5 wall minutes minus 3 paused minutes.
	assert.Equal(t, 2*time.Minute, c.Elapsed(start.Add(5*time.Minute)))
}

func TestClock_Elapsed_InProgressPause(t *testing.T) {
	start := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	c := Clock{
		Start:          start,
		PauseStartedAt: start.Add(2 * time.Minute),
		Target:         10 * time.Minute,
	}

	// Frozen at 2 minutes no matter how long the pause lasts.
	assert.Equal(t, 2*time.Minute, c.Elapsed(start.Add(2*time.Minute)))
	assert.Equal(t, 2*time.Minute, c.Elapsed(start.Add(30*time.Minute)))
	assert.Equal(t, 8*time.Minute, c.Remaining(start.Add(30*time.Minute)))
}

func TestClock_PauseShiftsCompletion(t *testing.T) {
	start := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	// A 5-minute session paused for 7 minutes completes at start+12m, not
	// start+5m.
	c := Clock{
		Start:             start,
		PausedAccumulated: 7 * time.Minute,
		Target:            5 * time.Minute,
	}

	assert.False(t, c.IsDue(start.Add(11*time.Minute)))
	assert.True(t, c.IsDue(start.Add(12*time.Minute)))
}

func TestClock_RemainingNeverNegative(t *testing.T) {
	start := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	c := Clock{Start: start, Target: time.Minute}

	assert.Equal(t, time.Duration(0), c.Remaining(start.Add(time.Hour)))
	assert.True(t, c.IsDue(start.Add(time.Hour)))
}

func TestClock_ClockAnomalyClampsToZero(t *testing.T) {
	start := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	c := Clock{Start: start, Target: 10 * time.Minute}

	// Device clock stepped backwards past the session start.
	before := start.Add(-5 * time.Minute)
	assert.Equal(t, time.Duration(0), c.Elapsed(before))
	assert.Equal(t, 10*time.Minute, c.Remaining(before))
	assert.False(t, c.IsDue(before))
}
