package session

import (
	"log"
	"sync"
	"time"

	"github.com/stillpoint/stillpoint-app/internal/safego"
)

// DefaultTickInterval is the display refresh cadence. Generous jitter is
// fine: ticks only refresh the projection, they are not where timing
// correctness lives.
const DefaultTickInterval = 500 * time.Millisecond

// TickScheduler wakes the controller at a bounded cadence so the UI stays
// fresh. The controller would compute the same elapsed/remaining answers if
// a tick arrived once a minute, so the scheduler keeps running across idle
// and paused sessions; idle ticks are no-ops.
type TickScheduler struct {
	controller *Controller
	logger     *log.Logger
	interval   time.Duration

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewTickScheduler starts ticking immediately.
func NewTickScheduler(controller *Controller, interval time.Duration, logger *log.Logger) *TickScheduler {
	if controller == nil {
		panic("TickScheduler: controller cannot be nil")
	}
	if logger == nil {
		panic("TickScheduler: logger cannot be nil")
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	s := &TickScheduler{
		controller: controller,
		logger:     logger,
		interval:   interval,
		done:       make(chan struct{}),
	}

	s.wg.Add(1)
	safego.Go(logger, func() { s.run() })

	return s
}

func (s *TickScheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.controller.Tick(time.Now())
		}
	}
}

// Stop halts ticking. Safe to call multiple times.
func (s *TickScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}
