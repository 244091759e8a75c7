package events

import (
	"sync"
)

// Stream fans values out to subscriber channels.
// T is the value type delivered to subscribers.
type Stream[T any] struct {
	mu         sync.RWMutex
	subs       map[uint64]chan<- T
	nextID     uint64
	replayLast bool
	last       *T
	published  bool
}

// NewStream creates a Stream.
// replayLast: when true, the most recent Publish value is delivered to new
// subscribers immediately, so late subscribers start from current state.
func NewStream[T any](replayLast bool) *Stream[T] {
	return &Stream[T]{
		subs:       make(map[uint64]chan<- T),
		replayLast: replayLast,
	}
}

// Subscribe registers a channel to receive published values.
// Returns a cancel function that removes the subscription.
// If replayLast is set and Publish has been called at least once, the last
// value is sent to the channel before Subscribe returns (non-blocking).
func (s *Stream[T]) Subscribe(ch chan<- T) func() {
	if ch == nil {
		panic("events: subscribe channel cannot be nil")
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	var replay *T
	if s.replayLast && s.published && s.last != nil {
		v := *s.last
		replay = &v
	}
	s.mu.Unlock()

	// Deliver the replay outside the lock so a subscriber callback chain
	// cannot deadlock against Publish.
	if replay != nil {
		select {
		case ch <- *replay:
		default:
		}
	}

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Publish sends value to every subscribed channel. Sends are non-blocking:
// a subscriber whose channel is full misses this value.
func (s *Stream[T]) Publish(value T) {
	s.mu.Lock()
	if s.replayLast {
		v := value
		s.last = &v
		s.published = true
	}
	targets := make([]chan<- T, 0, len(s.subs))
	for _, ch := range s.subs {
		targets = append(targets, ch)
	}
	s.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- value:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (s *Stream[T]) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
