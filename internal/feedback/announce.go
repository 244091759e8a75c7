package feedback

import (
	"log"

	"github.com/stillpoint/stillpoint-app/internal/session"
)

// AnnouncerFunc adapts a function to the session.Announcer interface.
type AnnouncerFunc func(instructionKey string) error

func (f AnnouncerFunc) Announce(instructionKey string) error {
	return f(instructionKey)
}

// LogAnnouncer writes announcement keys to the log, where the UI log pane
// (and a screen reader following it) can pick them up.
type LogAnnouncer struct {
	logger *log.Logger
}

var _ session.Announcer = (*LogAnnouncer)(nil)

func NewLogAnnouncer(logger *log.Logger) *LogAnnouncer {
	if logger == nil {
		panic("LogAnnouncer: logger cannot be nil")
	}
	return &LogAnnouncer{logger: logger}
}

func (a *LogAnnouncer) Announce(instructionKey string) error {
	a.logger.Printf("Announce: %s", instructionKey)
	return nil
}
