package ui

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/stillpoint/stillpoint-app/internal/events"
	"github.com/stillpoint/stillpoint-app/internal/safego"
	"github.com/stillpoint/stillpoint-app/internal/session"
)

// Screen identifies a UI screen.
type Screen int

const (
	ScreenSelection Screen = iota // Exercise and duration selection
	ScreenSession                 // Live session dashboard
)

// ScreenInfo contains display information for a screen.
type ScreenInfo struct {
	Screen      Screen
	DisplayName string
	KeyBinding  rune
}

// AllScreens defines the available screens in order.
var AllScreens = []ScreenInfo{
	{Screen: ScreenSelection, DisplayName: "Select", KeyBinding: '1'},
	{Screen: ScreenSession, DisplayName: "Session", KeyBinding: '2'},
}

// ScreenByKey returns the screen for a number-key binding.
func ScreenByKey(key rune) (Screen, bool) {
	for _, info := range AllScreens {
		if info.KeyBinding == key {
			return info.Screen, true
		}
	}
	return 0, false
}

// Selection is what the user has picked on the selection screen. ExerciseID
// is empty for plain countdown modes.
type Selection struct {
	Mode         session.Mode
	ExerciseID   string
	ExerciseName string
	Target       time.Duration
	AmbientSound string
}

// Model is the hub between the engine and the view: it buffers log lines,
// tracks the active screen and current selection, relays engine snapshots,
// and carries the close-application signal. The view renders only what the
// model publishes.
type Model struct {
	logEvent       *events.Stream[string]
	screenEvent    *events.Stream[Screen]
	selectionEvent *events.Stream[Selection]
	snapshotEvent  *events.Stream[session.Snapshot]
	closeEvent     *events.Stream[struct{}]

	mu        sync.RWMutex
	screen    Screen
	selection Selection
	snapshot  session.Snapshot

	logMu    sync.RWMutex
	logLines []string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *log.Logger
}

const maxLogLines = 1000

// NewModel creates the model and starts relaying engine snapshots and the
// UI log channel.
func NewModel(engine *session.Controller, logger *log.Logger, uiLogChan <-chan string) *Model {
	if engine == nil {
		panic("Model: engine cannot be nil")
	}
	if logger == nil {
		panic("Model: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("Model: uiLogChan cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		logEvent:       events.NewStream[string](false),
		screenEvent:    events.NewStream[Screen](true),
		selectionEvent: events.NewStream[Selection](true),
		snapshotEvent:  events.NewStream[session.Snapshot](true),
		closeEvent:     events.NewStream[struct{}](true),
		screen:         ScreenSelection,
		logLines:       make([]string, 0, maxLogLines),
		ctx:            ctx,
		cancel:         cancel,
		logger:         logger,
	}

	m.wg.Add(1)
	safego.Go(logger, func() { m.relaySnapshots(ctx, engine) })

	m.wg.Add(1)
	safego.Go(logger, func() { m.readFromLogChannel(ctx, uiLogChan) })

	return m
}

// Shutdown stops the model's goroutines and waits for them.
func (m *Model) Shutdown() {
	m.logger.Println("Model: shutting down")
	m.cancel()
	m.wg.Wait()
}

// ListenToLog registers a channel for new log lines.
func (m *Model) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Subscribe(ch)
}

// ListenToScreen registers a channel for screen changes.
func (m *Model) ListenToScreen(ch chan<- Screen) func() {
	return m.screenEvent.Subscribe(ch)
}

// ListenToSelection registers a channel for selection changes.
func (m *Model) ListenToSelection(ch chan<- Selection) func() {
	return m.selectionEvent.Subscribe(ch)
}

// ListenToSnapshots registers a channel for engine snapshots.
func (m *Model) ListenToSnapshots(ch chan<- session.Snapshot) func() {
	return m.snapshotEvent.Subscribe(ch)
}

// ListenToClose registers a channel for the close-application signal.
func (m *Model) ListenToClose(ch chan<- struct{}) func() {
	return m.closeEvent.Subscribe(ch)
}

// RequestClose signals that the application should exit.
func (m *Model) RequestClose() {
	m.closeEvent.Publish(struct{}{})
}

// Screen returns the active screen.
func (m *Model) Screen() Screen {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.screen
}

// SetScreen switches the active screen and notifies listeners.
func (m *Model) SetScreen(s Screen) {
	m.mu.Lock()
	if m.screen == s {
		m.mu.Unlock()
		return
	}
	m.screen = s
	m.mu.Unlock()

	m.screenEvent.Publish(s)
}

// Selection returns the current selection.
func (m *Model) Selection() Selection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selection
}

// SetSelection updates the selection and notifies listeners.
func (m *Model) SetSelection(sel Selection) {
	m.mu.Lock()
	m.selection = sel
	m.mu.Unlock()

	m.selectionEvent.Publish(sel)
}

// Snapshot returns the latest engine snapshot.
func (m *Model) Snapshot() session.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// GetLogTail returns the most recent n log lines.
func (m *Model) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}
	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}
	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}

func (m *Model) relaySnapshots(ctx context.Context, engine *session.Controller) {
	defer m.wg.Done()

	snapChan := make(chan session.Snapshot, 4)
	unregister := engine.ListenToSnapshots(snapChan)
	defer unregister()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapChan:
			if !ok {
				return
			}
			m.mu.Lock()
			m.snapshot = snap
			m.mu.Unlock()

			m.snapshotEvent.Publish(snap)
		}
	}
}

func (m *Model) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Publish(line)
		}
	}
}
