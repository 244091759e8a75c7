package session

import "time"

// PhasePosition locates a point inside an exercise cycle.
type PhasePosition struct {
	Index     int
	Kind      PhaseKind
	Remaining time.Duration
}

// PhaseTable maps elapsed session time to the active phase of an exercise.
// It precomputes cumulative phase boundaries once; PhaseAt then re-derives
// the position from absolute elapsed time on every call, so the result is
// identical whether it is asked every 100ms or once after a ten-minute
// suspension. It never counts down.
type PhaseTable struct {
	phases     []PhaseSpec
	boundaries []time.Duration
	cycle      time.Duration
}

// NewPhaseTable builds the boundary table for a definition.
// boundaries[i] is the sum of durations of phases 0..i.
func NewPhaseTable(def *ExerciseDefinition) *PhaseTable {
	boundaries := make([]time.Duration, len(def.Phases))
	var total time.Duration
	for i, p := range def.Phases {
		total += p.Duration
		boundaries[i] = total
	}
	return &PhaseTable{
		phases:     def.Phases,
		boundaries: boundaries,
		cycle:      total,
	}
}

// Cycle returns the duration of one full pass through all phases.
func (t *PhaseTable) Cycle() time.Duration {
	return t.cycle
}

// PhaseAt returns the active phase for the given elapsed time since session
// start (paused time already excluded). Elapsed times beyond one cycle wrap;
// negative values clamp to zero. At an exact cycle boundary the result is
// phase 0 with its full duration remaining.
func (t *PhaseTable) PhaseAt(elapsed time.Duration) PhasePosition {
	if elapsed < 0 {
		elapsed = 0
	}
	inCycle := elapsed % t.cycle

	for i, boundary := range t.boundaries {
		if inCycle < boundary {
			return PhasePosition{
				Index:     i,
				Kind:      t.phases[i].Kind,
				Remaining: boundary - inCycle,
			}
		}
	}

	// Unreachable: inCycle < t.cycle and the last boundary equals the cycle.
	last := len(t.phases) - 1
	return PhasePosition{Index: last, Kind: t.phases[last].Kind}
}
