package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickScheduler_DrivesController(t *testing.T) {
	c := NewController(testLogger(), Options{})
	require.NoError(t, c.Start(Config{Mode: ModeFocus, Target: 25 * time.Minute}))

	snapChan := make(chan Snapshot, 64)
	t.Cleanup(c.ListenToSnapshots(snapChan))

	s := NewTickScheduler(c, 5*time.Millisecond, testLogger())
	defer s.Stop()

	// Ticks publish snapshots on the scheduler's cadence.
	deadline := time.After(time.Second)
	seen := 0
	for seen < 3 {
		select {
		case <-snapChan:
			seen++
		case <-deadline:
			t.Fatal("Timeout waiting for tick-driven snapshots")
		}
	}
}

func TestTickScheduler_DefaultInterval(t *testing.T) {
	c := NewController(testLogger(), Options{})

	s := NewTickScheduler(c, 0, testLogger())
	defer s.Stop()

	assert.Equal(t, DefaultTickInterval, s.interval)
}

func TestTickScheduler_StopIsIdempotent(t *testing.T) {
	c := NewController(testLogger(), Options{})

	s := NewTickScheduler(c, 5*time.Millisecond, testLogger())
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestTickScheduler_IdleTicksAreNoOps(t *testing.T) {
	c := NewController(testLogger(), Options{})

	snapChan := make(chan Snapshot, 64)
	t.Cleanup(c.ListenToSnapshots(snapChan))

	s := NewTickScheduler(c, 5*time.Millisecond, testLogger())
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	select {
	case snap := <-snapChan:
		t.Errorf("Unexpected snapshot while idle: %+v", snap)
	default:
		// Expected - idle ticks publish nothing
	}
}
