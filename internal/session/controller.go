package session

import (
	"log"
	"sync"
	"time"

	"github.com/stillpoint/stillpoint-app/internal/events"
)

// DefaultMinimumEligible is the elapsed time a session must reach before a
// stop or completion is credited to history.
const DefaultMinimumEligible = 60 * time.Second

// Options tune a Controller. Zero values select defaults.
type Options struct {
	// MinimumEligible is the elapsed-time threshold below which a stopped
	// session is discarded rather than recorded.
	MinimumEligible time.Duration

	// Now overrides the wall clock, for tests.
	Now func() time.Time
}

// Controller is the session lifecycle state machine. It is the single
// owner of the mutable runtime state; everything else sees snapshots and
// events. Commands are serialized by the internal mutex, so there is never
// more than one writer.
//
// Correctness does not depend on tick cadence: phase position and session
// progress are re-derived from absolute instants on every call (PhaseTable,
// Clock), so Tick only refreshes the display projection and detects
// completion.
type Controller struct {
	logger      *log.Logger
	now         func() time.Time
	minEligible time.Duration

	mu            sync.RWMutex
	lifecycle     Lifecycle
	config        Config
	table         *PhaseTable // nil for plain countdown sessions
	clock         Clock
	anomalyLogged bool

	eventStream    *events.Stream[Event]
	snapshotStream *events.Stream[Snapshot]
}

// NewController creates an idle controller.
func NewController(logger *log.Logger, opts Options) *Controller {
	if logger == nil {
		panic("Controller: logger cannot be nil")
	}
	if opts.MinimumEligible <= 0 {
		opts.MinimumEligible = DefaultMinimumEligible
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		logger:         logger,
		now:            opts.Now,
		minEligible:    opts.MinimumEligible,
		lifecycle:      LifecycleIdle,
		eventStream:    events.NewStream[Event](false),
		snapshotStream: events.NewStream[Snapshot](true),
	}
}

// ListenToEvents registers a channel for lifecycle events.
// Returns a deregistration function.
func (c *Controller) ListenToEvents(ch chan<- Event) func() {
	return c.eventStream.Subscribe(ch)
}

// ListenToSnapshots registers a channel for display snapshots. The most
// recent snapshot is replayed to new listeners.
// Returns a deregistration function.
func (c *Controller) ListenToSnapshots(ch chan<- Snapshot) func() {
	return c.snapshotStream.Subscribe(ch)
}

// Snapshot returns the current display projection.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buildSnapshot(c.now())
}

// Lifecycle returns the current lifecycle state.
func (c *Controller) Lifecycle() Lifecycle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lifecycle
}

// Start begins a new session. Legal only from Idle; the target duration
// must be positive and a breathing config must carry an exercise.
func (c *Controller) Start(cfg Config) error {
	now := c.now()

	c.mu.Lock()
	if c.lifecycle != LifecycleIdle {
		c.mu.Unlock()
		c.logger.Printf("Controller: cannot start while %s", c.lifecycle)
		return ErrIllegalTransition
	}
	if cfg.Target <= 0 {
		c.mu.Unlock()
		c.logger.Printf("Controller: rejected start with non-positive target %v", cfg.Target)
		return ErrInvalidDefinition
	}

	c.config = cfg
	c.table = nil
	if cfg.Exercise != nil {
		c.table = NewPhaseTable(cfg.Exercise)
	}
	c.clock = Clock{Start: now, Target: cfg.Target}
	c.lifecycle = LifecycleRunning
	c.anomalyLogged = false
	snap := c.buildSnapshot(now)
	c.mu.Unlock()

	c.logger.Printf("Controller: session started (%s, target %v)", cfg.Mode, cfg.Target)
	c.eventStream.Publish(Event{Kind: EventStarted, Config: cfg, At: now})
	c.snapshotStream.Publish(snap)
	return nil
}

// Pause suspends a running session. Legal only from Running; paused time
// never counts toward elapsed.
func (c *Controller) Pause() error {
	now := c.now()

	c.mu.Lock()
	if c.lifecycle != LifecycleRunning {
		c.mu.Unlock()
		c.logger.Printf("Controller: cannot pause while %s", c.lifecycle)
		return ErrIllegalTransition
	}

	c.clock.PauseStartedAt = now
	c.lifecycle = LifecyclePaused
	cfg := c.config
	elapsed := c.clock.Elapsed(now)
	snap := c.buildSnapshot(now)
	c.mu.Unlock()

	c.logger.Printf("Controller: session paused at %v", elapsed)
	c.eventStream.Publish(Event{Kind: EventPaused, Config: cfg, At: now, Elapsed: elapsed})
	c.snapshotStream.Publish(snap)
	return nil
}

// Resume continues a paused session. Legal only from Paused.
func (c *Controller) Resume() error {
	now := c.now()

	c.mu.Lock()
	if c.lifecycle != LifecyclePaused {
		c.mu.Unlock()
		c.logger.Printf("Controller: cannot resume while %s", c.lifecycle)
		return ErrIllegalTransition
	}

	if d := now.Sub(c.clock.PauseStartedAt); d > 0 {
		c.clock.PausedAccumulated += d
	}
	c.clock.PauseStartedAt = time.Time{}
	c.lifecycle = LifecycleRunning
	cfg := c.config
	elapsed := c.clock.Elapsed(now)
	snap := c.buildSnapshot(now)
	c.mu.Unlock()

	c.logger.Printf("Controller: session resumed at %v", elapsed)
	c.eventStream.Publish(Event{Kind: EventResumed, Config: cfg, At: now, Elapsed: elapsed})
	c.snapshotStream.Publish(snap)
	return nil
}

// Stop ends the session unconditionally and returns to Idle. From Idle it
// is a no-op; from Completed it acknowledges without a second terminal
// event. A stop below the minimum eligible duration marks the event
// ineligible so the session is discarded rather than recorded.
func (c *Controller) Stop() error {
	now := c.now()

	c.mu.Lock()
	switch c.lifecycle {
	case LifecycleIdle:
		c.mu.Unlock()
		return nil
	case LifecycleCompleted:
		// Completion already emitted; just acknowledge.
		c.resetLocked()
		snap := c.buildSnapshot(now)
		c.mu.Unlock()
		c.snapshotStream.Publish(snap)
		return nil
	}

	elapsed := c.clock.Elapsed(now)
	cfg := c.config
	eligible := elapsed >= c.minEligible
	c.resetLocked()
	snap := c.buildSnapshot(now)
	c.mu.Unlock()

	if eligible {
		c.logger.Printf("Controller: session stopped at %v (eligible)", elapsed)
	} else {
		c.logger.Printf("Controller: session stopped at %v, below %v minimum - discarded", elapsed, c.minEligible)
	}
	c.eventStream.Publish(Event{
		Kind:            EventStopped,
		Config:          cfg,
		At:              now,
		Elapsed:         elapsed,
		DurationMinutes: int(elapsed / time.Minute),
		Eligible:        eligible,
	})
	c.snapshotStream.Publish(snap)
	return nil
}

// AcknowledgeCompletion returns a completed session to Idle.
func (c *Controller) AcknowledgeCompletion() error {
	now := c.now()

	c.mu.Lock()
	if c.lifecycle != LifecycleCompleted {
		c.mu.Unlock()
		c.logger.Printf("Controller: cannot acknowledge completion while %s", c.lifecycle)
		return ErrIllegalTransition
	}
	c.resetLocked()
	snap := c.buildSnapshot(now)
	c.mu.Unlock()

	c.snapshotStream.Publish(snap)
	return nil
}

// Tick refreshes the display projection and, while Running, checks whether
// the session is due. It is called by the TickScheduler but is safe to call
// at any frequency: all timing math re-derives from now, so a single Tick
// after a long suspension produces the same completion a steady cadence
// would have.
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	if c.lifecycle == LifecycleIdle {
		c.mu.Unlock()
		return
	}

	if now.Before(c.clock.Start) && !c.anomalyLogged {
		c.logger.Printf("Controller: clock anomaly, now %v precedes session start %v; clamping", now, c.clock.Start)
		c.anomalyLogged = true
	}

	if c.lifecycle == LifecycleRunning && c.clock.IsDue(now) {
		c.lifecycle = LifecycleCompleted
		cfg := c.config
		target := c.clock.Target
		snap := c.buildSnapshot(now)
		c.mu.Unlock()

		c.logger.Printf("Controller: session completed (%v)", target)
		c.eventStream.Publish(Event{
			Kind:            EventCompleted,
			Config:          cfg,
			At:              now,
			Elapsed:         target,
			DurationMinutes: int(target / time.Minute),
			Eligible:        target >= c.minEligible,
		})
		c.snapshotStream.Publish(snap)
		return
	}

	snap := c.buildSnapshot(now)
	c.mu.Unlock()

	c.snapshotStream.Publish(snap)
}

// resetLocked clears runtime state back to Idle.
// MUST be called with mu held.
func (c *Controller) resetLocked() {
	c.lifecycle = LifecycleIdle
	c.config = Config{}
	c.table = nil
	c.clock = Clock{}
	c.anomalyLogged = false
}

// buildSnapshot computes the display projection for now.
// MUST be called with mu held (at least read lock).
func (c *Controller) buildSnapshot(now time.Time) Snapshot {
	snap := Snapshot{
		Lifecycle: c.lifecycle,
		Config:    c.config,
	}

	if c.lifecycle == LifecycleIdle {
		return snap
	}

	if c.lifecycle == LifecycleCompleted {
		snap.Elapsed = c.clock.Target
		snap.Remaining = 0
	} else {
		snap.Elapsed = c.clock.Elapsed(now)
		snap.Remaining = c.clock.Remaining(now)
	}

	if c.table != nil {
		pos := c.table.PhaseAt(snap.Elapsed)
		snap.PhaseIndex = pos.Index
		snap.PhaseKind = pos.Kind
		snap.InstructionKey = c.config.Exercise.Phases[pos.Index].InstructionKey
		snap.PhaseRemaining = pos.Remaining
	}

	return snap
}
