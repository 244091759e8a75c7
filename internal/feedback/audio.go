package feedback

import (
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/stillpoint/stillpoint-app/internal/session"
)

// ErrUnavailable marks a feedback channel that cannot operate on this
// machine or with this configuration. The dispatcher logs it and carries
// on with that channel degraded.
var ErrUnavailable = errors.New("feedback: channel unavailable")

// Player plays ambient sound by running an external player command (for
// example "mpv --no-video --loop" or "paplay"). The session's ambient
// selection is appended as the final argument. An empty command disables
// the channel.
//
// Fade durations are accepted for interface compatibility but not
// implemented: external players own their own output chain.
type Player struct {
	logger  *log.Logger
	command []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

var _ session.AudioSink = (*Player)(nil)

// NewPlayer creates a player from a whitespace-separated command template.
func NewPlayer(command string, logger *log.Logger) *Player {
	if logger == nil {
		panic("Player: logger cannot be nil")
	}
	return &Player{
		logger:  logger,
		command: strings.Fields(command),
	}
}

// Start launches the player process for the given selection. A previous
// process, if any, is stopped first.
func (p *Player) Start(selection string, fadeIn time.Duration) error {
	if len(p.command) == 0 || selection == "" {
		return ErrUnavailable
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	args := append(append([]string{}, p.command[1:]...), selection)
	cmd := exec.Command(p.command[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player %q: %w", p.command[0], err)
	}
	p.cmd = cmd
	p.logger.Printf("Player: started %s %s (pid %d)", p.command[0], selection, cmd.Process.Pid)

	// Reap the process when it exits on its own.
	go func() { _ = cmd.Wait() }()
	return nil
}

// Stop terminates the player process.
func (p *Player) Stop(fadeOut time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return nil
	}
	p.stopLocked()
	return nil
}

// SetVolume is not supported for external players; the channel degrades.
func (p *Player) SetVolume(level float64) error {
	return fmt.Errorf("%w: external player has no volume control", ErrUnavailable)
}

// stopLocked kills the current process, if any.
// MUST be called with mu held.
func (p *Player) stopLocked() {
	if p.cmd == nil || p.cmd.Process == nil {
		p.cmd = nil
		return
	}
	if err := p.cmd.Process.Kill(); err != nil {
		p.logger.Printf("Player: kill failed: %v", err)
	}
	p.cmd = nil
}
