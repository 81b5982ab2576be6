package task

import "sync"

// Change describes a completed mutation of a Store.
type Change struct {
	Op    string `json:"op"` // add, toggle, delete, delete_completed, set_all
	Stats Stats  `json:"stats"`
}

// bus fans out change notifications to in-process subscribers.
type bus struct {
	mu   sync.RWMutex
	subs map[chan Change]struct{}
}

func newBus() *bus {
	return &bus{subs: make(map[chan Change]struct{})}
}

func (b *bus) publish(c Change) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- c:
		default:
			// subscriber is behind; drop to avoid blocking the mutation
		}
	}
	b.mu.RUnlock()
}

// Subscribe returns a buffered channel that receives every change.
func (s *Store) Subscribe() chan Change {
	ch := make(chan Change, 64)
	s.bus.mu.Lock()
	s.bus.subs[ch] = struct{}{}
	s.bus.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Store) Unsubscribe(ch chan Change) {
	s.bus.mu.Lock()
	if _, ok := s.bus.subs[ch]; ok {
		delete(s.bus.subs, ch)
		close(ch)
	}
	s.bus.mu.Unlock()
}
