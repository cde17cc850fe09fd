package reactive

import (
	"sync"
	"sync/atomic"
)

var idCounter atomic.Uint64

// nextID returns a process-unique identifier.
func nextID() uint64 {
	return idCounter.Add(1)
}

// Subscribers is a set of change callbacks. The zero value is ready to use
// and safe for concurrent use.
type Subscribers struct {
	mu   sync.RWMutex
	subs []subscriber
}

type subscriber struct {
	id uint64
	fn func()
}

// Subscribe registers fn and returns a func that removes it again.
// Calling the returned func more than once is harmless.
func (s *Subscribers) Subscribe(fn func()) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	id := nextID()

	s.mu.Lock()
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *Subscribers) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			// Preserve registration order for the remaining subscribers
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered subscribers.
func (s *Subscribers) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Notify calls every subscriber in registration order.
// Uses copy-before-notify so callbacks may subscribe or unsubscribe.
func (s *Subscribers) Notify() {
	s.mu.RLock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn()
	}
}
