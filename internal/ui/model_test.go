package ui

import (
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillpoint/stillpoint-app/internal/session"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestModel(t *testing.T) (*Model, *session.Controller, chan string) {
	t.Helper()
	engine := session.NewController(testLogger(), session.Options{})
	logChan := make(chan string, 100)
	m := NewModel(engine, testLogger(), logChan)
	t.Cleanup(m.Shutdown)
	return m, engine, logChan
}

func TestScreenByKey(t *testing.T) {
	s, ok := ScreenByKey('1')
	require.True(t, ok)
	assert.Equal(t, ScreenSelection, s)

	s, ok = ScreenByKey('2')
	require.True(t, ok)
	assert.Equal(t, ScreenSession, s)

	_, ok = ScreenByKey('9')
	assert.False(t, ok)
}

func TestModel_SetScreen(t *testing.T) {
	m, _, _ := newTestModel(t)

	assert.Equal(t, ScreenSelection, m.Screen())

	ch := make(chan Screen, 4)
	t.Cleanup(m.ListenToScreen(ch))

	m.SetScreen(ScreenSession)
	assert.Equal(t, ScreenSession, m.Screen())

	select {
	case s := <-ch:
		assert.Equal(t, ScreenSession, s)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for screen change")
	}

	// Setting the same screen again publishes nothing.
	m.SetScreen(ScreenSession)
	select {
	case s := <-ch:
		t.Errorf("Unexpected screen event: %v", s)
	default:
		// Expected
	}
}

func TestModel_SelectionRoundTrip(t *testing.T) {
	m, _, _ := newTestModel(t)

	sel := Selection{
		Mode:         session.ModeBreathing,
		ExerciseID:   "coherent",
		ExerciseName: "Coherent Breathing",
		Target:       15 * time.Minute,
	}
	m.SetSelection(sel)
	assert.Equal(t, sel, m.Selection())

	// Late listeners receive the current selection via replay.
	ch := make(chan Selection, 4)
	t.Cleanup(m.ListenToSelection(ch))
	select {
	case got := <-ch:
		assert.Equal(t, sel, got)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for replayed selection")
	}
}

func TestModel_LogBufferAndTail(t *testing.T) {
	m, _, logChan := newTestModel(t)

	for i := 0; i < 5; i++ {
		logChan <- fmt.Sprintf("line %d\n", i)
	}

	require.Eventually(t, func() bool {
		return len(m.GetLogTail(10)) == 5
	}, time.Second, 5*time.Millisecond)

	tail := m.GetLogTail(2)
	require.Len(t, tail, 2)
	assert.Equal(t, "line 3\n", tail[0])
	assert.Equal(t, "line 4\n", tail[1])

	assert.Empty(t, m.GetLogTail(0))
}

func TestModel_LogBufferBounded(t *testing.T) {
	m, _, logChan := newTestModel(t)

	for i := 0; i < maxLogLines+50; i++ {
		logChan <- fmt.Sprintf("line %d\n", i)
	}

	require.Eventually(t, func() bool {
		tail := m.GetLogTail(maxLogLines + 100)
		return len(tail) == maxLogLines &&
			tail[len(tail)-1] == fmt.Sprintf("line %d\n", maxLogLines+49)
	}, time.Second, 5*time.Millisecond)
}

func TestModel_RelaysEngineSnapshots(t *testing.T) {
	m, engine, _ := newTestModel(t)

	ch := make(chan session.Snapshot, 8)
	t.Cleanup(m.ListenToSnapshots(ch))

	def, err := session.NewExerciseDefinition("test", "Test", []session.PhaseSpec{
		{Kind: session.PhaseInhale, Duration: 4 * time.Second},
	})
	require.NoError(t, err)
	require.NoError(t, engine.Start(session.Config{
		Mode:     session.ModeBreathing,
		Exercise: def,
		Target:   5 * time.Minute,
	}))

	select {
	case snap := <-ch:
		assert.Equal(t, session.LifecycleRunning, snap.Lifecycle)
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for relayed snapshot")
	}

	require.Eventually(t, func() bool {
		return m.Snapshot().Lifecycle == session.LifecycleRunning
	}, time.Second, 5*time.Millisecond)
}

func TestModel_RequestClose(t *testing.T) {
	m, _, _ := newTestModel(t)

	ch := make(chan struct{}, 1)
	t.Cleanup(m.ListenToClose(ch))

	m.RequestClose()
	select {
	case <-ch:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for close signal")
	}
}
