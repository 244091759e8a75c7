package events

import (
	"sync"
)

// Hook fans values out to registered callback functions. Unlike Stream, a
// Hook delivers synchronously on the publisher's goroutine, so callbacks
// must be quick and must not call back into the publisher.
type Hook[T any] struct {
	mu         sync.RWMutex
	callbacks  map[uint64]func(T)
	nextID     uint64
	replayLast bool
	last       *T
	published  bool
}

// NewHook creates a Hook. replayLast behaves as in NewStream: new callbacks
// are invoked immediately with the most recent value, if any.
func NewHook[T any](replayLast bool) *Hook[T] {
	return &Hook[T]{
		callbacks:  make(map[uint64]func(T)),
		replayLast: replayLast,
	}
}

// Attach registers a callback and returns a cancel function.
func (h *Hook[T]) Attach(fn func(T)) func() {
	if fn == nil {
		panic("events: hook callback cannot be nil")
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.callbacks[id] = fn
	var replay *T
	if h.replayLast && h.published && h.last != nil {
		v := *h.last
		replay = &v
	}
	h.mu.Unlock()

	if replay != nil {
		fn(*replay)
	}

	return func() {
		h.mu.Lock()
		delete(h.callbacks, id)
		h.mu.Unlock()
	}
}

// Publish invokes every registered callback with value. Callbacks run
// outside the internal lock, so they may detach themselves.
func (h *Hook[T]) Publish(value T) {
	h.mu.Lock()
	if h.replayLast {
		v := value
		h.last = &v
		h.published = true
	}
	targets := make([]func(T), 0, len(h.callbacks))
	for _, fn := range h.callbacks {
		targets = append(targets, fn)
	}
	h.mu.Unlock()

	for _, fn := range targets {
		fn(value)
	}
}

// CallbackCount returns the number of attached callbacks.
func (h *Hook[T]) CallbackCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.callbacks)
}
