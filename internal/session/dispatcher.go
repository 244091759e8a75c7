package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/stillpoint/stillpoint-app/internal/safego"
)

// HapticPattern names a haptic waveform family. Generating the actual
// waveform is the sink's problem.
type HapticPattern string

const (
	HapticRise    HapticPattern = "rise"
	HapticSustain HapticPattern = "sustain"
	HapticFall    HapticPattern = "fall"
	HapticStill   HapticPattern = "still"
)

// PatternForPhase maps a phase kind to its haptic pattern.
func PatternForPhase(kind PhaseKind) HapticPattern {
	switch kind {
	case PhaseInhale:
		return HapticRise
	case PhaseHold:
		return HapticSustain
	case PhaseExhale:
		return HapticFall
	default:
		return HapticStill
	}
}

// AudioSink plays ambient sound. Selection strings are opaque and come
// straight from the session config.
type AudioSink interface {
	Start(selection string, fadeIn time.Duration) error
	Stop(fadeOut time.Duration) error
	SetVolume(level float64) error
}

// HapticSink produces tactile feedback. The engine is started for the
// whole session and stopped on pause/stop; Play fires one pattern.
type HapticSink interface {
	StartEngine() error
	StopEngine() error
	Play(pattern HapticPattern, intensity float64) error
}

// Announcer surfaces accessibility announcements. It receives opaque
// localization keys; resolving them to display text is the consumer's job.
type Announcer interface {
	Announce(instructionKey string) error
}

// CompletedSession is the record handed to the history store for an
// eligible session. Completed is false when the user stopped early but
// still past the minimum threshold.
type CompletedSession struct {
	EndedAt         time.Time `json:"ended_at"`
	Mode            string    `json:"mode"`
	ExerciseID      string    `json:"exercise_id,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	Completed       bool      `json:"completed"`
}

// HistoryStore persists eligible sessions for the statistics/badge side of
// the app. The engine never reads anything back from it.
type HistoryStore interface {
	SaveCompleted(rec CompletedSession) error
}

// Sinks bundles the dispatcher's outbound channels.
type Sinks struct {
	Audio     AudioSink
	Haptics   HapticSink
	Announcer Announcer
	History   HistoryStore
}

const (
	audioFadeIn       = 2 * time.Second
	audioFadeOut      = 3 * time.Second
	pausedVolumeRatio = 0.5
	fullVolume        = 1.0
	phaseIntensity    = 0.8
)

// Dispatcher translates controller events and phase-boundary crossings into
// commands for the audio, haptic, announcement and persistence sinks. All
// dispatch is fire-and-forget on the dispatcher's own goroutine; a failing
// sink is logged and silently degraded, it can never stall the engine.
type Dispatcher struct {
	logger *log.Logger
	sinks  Sinks

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Dispatch-goroutine state, no lock needed.
	lastPhase int
	volume    float64
}

// NewDispatcher subscribes to the controller and starts dispatching.
func NewDispatcher(controller *Controller, sinks Sinks, logger *log.Logger) *Dispatcher {
	if controller == nil {
		panic("Dispatcher: controller cannot be nil")
	}
	if logger == nil {
		panic("Dispatcher: logger cannot be nil")
	}
	if sinks.Audio == nil || sinks.Haptics == nil || sinks.Announcer == nil || sinks.History == nil {
		panic("Dispatcher: all sinks must be provided")
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		logger:    logger,
		sinks:     sinks,
		ctx:       ctx,
		cancel:    cancel,
		lastPhase: -1,
		volume:    fullVolume,
	}

	eventChan := make(chan Event, 16)
	snapChan := make(chan Snapshot, 16)
	unregisterEvents := controller.ListenToEvents(eventChan)
	unregisterSnaps := controller.ListenToSnapshots(snapChan)

	d.wg.Add(1)
	safego.Go(logger, func() {
		defer d.wg.Done()
		defer unregisterEvents()
		defer unregisterSnaps()
		d.run(eventChan, snapChan)
	})

	return d
}

// Shutdown stops the dispatch goroutine and waits for it.
func (d *Dispatcher) Shutdown() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) run(eventChan <-chan Event, snapChan <-chan Snapshot) {
	for {
		select {
		case <-d.ctx.Done():
			return
		case ev, ok := <-eventChan:
			if !ok {
				return
			}
			d.handleEvent(ev)
		case snap, ok := <-snapChan:
			if !ok {
				return
			}
			d.handleSnapshot(snap)
		}
	}
}

func (d *Dispatcher) handleEvent(ev Event) {
	switch ev.Kind {
	case EventStarted:
		d.lastPhase = -1
		d.volume = fullVolume
		d.emit("audio", func() error { return d.sinks.Audio.Start(ev.Config.AmbientSound, audioFadeIn) })
		d.emit("haptics", func() error { return d.sinks.Haptics.StartEngine() })

	case EventPaused:
		d.emit("audio", func() error { return d.sinks.Audio.SetVolume(d.volume * pausedVolumeRatio) })
		d.emit("haptics", func() error { return d.sinks.Haptics.StopEngine() })

	case EventResumed:
		d.emit("audio", func() error { return d.sinks.Audio.SetVolume(d.volume) })
		d.emit("haptics", func() error { return d.sinks.Haptics.StartEngine() })

	case EventStopped, EventCompleted:
		d.emit("audio", func() error { return d.sinks.Audio.Stop(audioFadeOut) })
		d.emit("haptics", func() error { return d.sinks.Haptics.StopEngine() })
		d.lastPhase = -1
		if ev.Eligible {
			rec := CompletedSession{
				EndedAt:         ev.At,
				Mode:            ev.Config.Mode.String(),
				DurationMinutes: ev.DurationMinutes,
				Completed:       ev.Kind == EventCompleted,
			}
			if ev.Config.Exercise != nil {
				rec.ExerciseID = ev.Config.Exercise.ID
			}
			d.emit("history", func() error { return d.sinks.History.SaveCompleted(rec) })
		}
	}
}

// handleSnapshot detects phase-boundary crossings by comparing the phase
// index across consecutive snapshots.
func (d *Dispatcher) handleSnapshot(snap Snapshot) {
	if snap.Lifecycle != LifecycleRunning || snap.Config.Exercise == nil {
		return
	}
	if snap.PhaseIndex == d.lastPhase {
		return
	}
	d.lastPhase = snap.PhaseIndex

	pattern := PatternForPhase(snap.PhaseKind)
	key := snap.InstructionKey
	d.emit("haptics", func() error { return d.sinks.Haptics.Play(pattern, phaseIntensity) })
	d.emit("announce", func() error { return d.sinks.Announcer.Announce(key) })
}

// emit runs one sink command, containing both errors and panics so a broken
// channel degrades silently instead of taking down the timing engine.
func (d *Dispatcher) emit(channel string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("Dispatcher: %s sink panicked: %v", channel, r)
		}
	}()
	if err := fn(); err != nil {
		d.logger.Printf("Dispatcher: %s sink degraded: %v", channel, err)
	}
}
