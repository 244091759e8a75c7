package feedback

import (
	"io"
	"log"
	"strings"
	"sync"

	"github.com/stillpoint/stillpoint-app/internal/session"
)

// TerminalHaptics approximates haptic feedback with the terminal bell.
// Terminals interpret BEL anywhere in the byte stream, so writing it while
// the curses UI is drawing is safe. Play is a no-op while the engine is
// stopped, which is how paused sessions go quiet.
type TerminalHaptics struct {
	logger *log.Logger
	out    io.Writer

	mu      sync.Mutex
	running bool
}

var _ session.HapticSink = (*TerminalHaptics)(nil)

// NewTerminalHaptics writes bell characters to out, typically os.Stdout.
func NewTerminalHaptics(out io.Writer, logger *log.Logger) *TerminalHaptics {
	if out == nil {
		panic("TerminalHaptics: out cannot be nil")
	}
	if logger == nil {
		panic("TerminalHaptics: logger cannot be nil")
	}
	return &TerminalHaptics{logger: logger, out: out}
}

// StartEngine enables pattern playback.
func (h *TerminalHaptics) StartEngine() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = true
	return nil
}

// StopEngine disables pattern playback.
func (h *TerminalHaptics) StopEngine() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
	return nil
}

// Play rings the bell for the given pattern. Intensity has no terminal
// analog and is ignored.
func (h *TerminalHaptics) Play(pattern session.HapticPattern, intensity float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}
	_, err := io.WriteString(h.out, strings.Repeat("\a", bellCount(pattern)))
	return err
}

func bellCount(pattern session.HapticPattern) int {
	switch pattern {
	case session.HapticRise:
		return 2
	default:
		return 1
	}
}
