package session

import (
	"errors"
	"time"
)

// PhaseKind identifies one segment of a breathing cycle. It carries only
// domain data; colors, scale curves and display text live in the UI layer.
type PhaseKind int

const (
	PhaseInhale PhaseKind = iota
	PhaseHold
	PhaseExhale
	PhaseHoldAfterExhale
)

// String returns the stable identifier used in logs and the catalog file.
func (k PhaseKind) String() string {
	switch k {
	case PhaseInhale:
		return "inhale"
	case PhaseHold:
		return "hold"
	case PhaseExhale:
		return "exhale"
	case PhaseHoldAfterExhale:
		return "hold_after_exhale"
	default:
		return "unknown"
	}
}

// PhaseSpec is one step of an exercise. InstructionKey is an opaque
// localization reference; the engine passes it through untouched.
type PhaseSpec struct {
	Kind           PhaseKind
	Duration       time.Duration
	InstructionKey string
}

// ExerciseDefinition is an immutable ordered sequence of phases. Build one
// with NewExerciseDefinition so the cycle duration is validated and cached.
type ExerciseDefinition struct {
	ID     string
	Name   string
	Phases []PhaseSpec

	cycleDuration time.Duration
}

// Sentinel errors for the engine's public surface.
var (
	ErrInvalidDefinition  = errors.New("session: invalid exercise definition")
	ErrDefinitionNotFound = errors.New("session: exercise definition not found")
	ErrIllegalTransition  = errors.New("session: illegal lifecycle transition")
)

// NewExerciseDefinition validates phases and returns a definition with the
// cycle duration precomputed. An empty phase list or any non-positive phase
// duration yields ErrInvalidDefinition.
func NewExerciseDefinition(id, name string, phases []PhaseSpec) (*ExerciseDefinition, error) {
	if id == "" {
		return nil, ErrInvalidDefinition
	}
	if len(phases) == 0 {
		return nil, ErrInvalidDefinition
	}

	var cycle time.Duration
	owned := make([]PhaseSpec, len(phases))
	copy(owned, phases)
	for _, p := range owned {
		if p.Duration <= 0 {
			return nil, ErrInvalidDefinition
		}
		cycle += p.Duration
	}

	return &ExerciseDefinition{
		ID:            id,
		Name:          name,
		Phases:        owned,
		cycleDuration: cycle,
	}, nil
}

// CycleDuration returns the sum of all phase durations.
func (d *ExerciseDefinition) CycleDuration() time.Duration {
	return d.cycleDuration
}

// Mode is the flavor of a session. Breathing sessions cycle through an
// exercise's phases; focus and break sessions are plain countdowns.
type Mode int

const (
	ModeBreathing Mode = iota
	ModeFocus
	ModeBreak
)

func (m Mode) String() string {
	switch m {
	case ModeBreathing:
		return "breathing"
	case ModeFocus:
		return "focus"
	case ModeBreak:
		return "break"
	default:
		return "unknown"
	}
}

// Duration presets offered per mode. The engine accepts any positive
// target; these are what the UI lists.
var (
	BreathingPresets = []time.Duration{
		5 * time.Minute, 10 * time.Minute, 15 * time.Minute,
		20 * time.Minute, 30 * time.Minute,
	}
	FocusPresets = []time.Duration{25 * time.Minute, 50 * time.Minute}
	BreakPresets = []time.Duration{5 * time.Minute, 10 * time.Minute}
)

// PresetsForMode returns the duration presets for a mode.
func PresetsForMode(m Mode) []time.Duration {
	switch m {
	case ModeFocus:
		return FocusPresets
	case ModeBreak:
		return BreakPresets
	default:
		return BreathingPresets
	}
}

// Config describes the session the user asked for. Exercise is nil for
// plain countdown modes. AmbientSound is opaque to the engine and handed
// through to the audio sink untouched.
type Config struct {
	Mode         Mode
	Exercise     *ExerciseDefinition
	Target       time.Duration
	AmbientSound string
}

// Lifecycle is the session's current mode of operation. Exactly one value
// holds at any instant.
type Lifecycle int

const (
	LifecycleIdle Lifecycle = iota
	LifecycleRunning
	LifecyclePaused
	LifecycleCompleted
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleIdle:
		return "idle"
	case LifecycleRunning:
		return "running"
	case LifecyclePaused:
		return "paused"
	case LifecycleCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Snapshot is the read-only display projection of the engine. Views render
// it; nothing in it can be used to mutate engine state.
type Snapshot struct {
	Lifecycle Lifecycle
	Config    Config

	// Phase fields are meaningful only when Config.Exercise is non-nil and
	// the lifecycle is not Idle.
	PhaseIndex     int
	PhaseKind      PhaseKind
	InstructionKey string
	PhaseRemaining time.Duration

	Elapsed   time.Duration
	Remaining time.Duration
}

// EventKind tags a lifecycle event.
type EventKind int

const (
	EventStarted EventKind = iota
	EventPaused
	EventResumed
	EventStopped
	EventCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventStopped:
		return "stopped"
	case EventCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Event is a semantic lifecycle transition emitted by the Controller.
// Consumers translate these into platform effects; the engine never calls
// audio or haptics directly.
type Event struct {
	Kind   EventKind
	Config Config
	At     time.Time

	// Elapsed is the session time accumulated when the event fired,
	// excluding paused time.
	Elapsed time.Duration

	// DurationMinutes and Eligible are set on Stopped and Completed events.
	// An ineligible session is discarded rather than recorded.
	DurationMinutes int
	Eligible        bool
}
