package safego

import "runtime/debug"
import "log"

// Go runs fn on a new goroutine and logs any panic with a stack trace
// before re-panicking. The curses UI owns the terminal, so a panic on a
// background goroutine would otherwise disappear with the screen.
func Go(logger *log.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("PANIC: %v\n%s", r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}
