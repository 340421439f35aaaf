package production

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/comalice/navigatorx/internal/core"
)

// MemoryStore is a single-writer observable store. The latest state is kept
// behind an atomic pointer so reads never block; subscribers receive every
// write unless their buffer is full, in which case the value is dropped for
// that subscriber only.
type MemoryStore struct {
	latest  atomic.Pointer[core.NavState]
	writes  atomic.Uint64
	dropped atomic.Uint64

	mu     sync.Mutex // guards subs, orders fan-out
	subs   map[uint64]chan core.NavState
	nextID uint64
	closed bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[uint64]chan core.NavState)}
}

func (s *MemoryStore) Write(state core.NavState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest.Store(&state)
	s.writes.Inc()
	for _, ch := range s.subs {
		select {
		case ch <- state:
		default:
			s.dropped.Inc()
		}
	}
}

func (s *MemoryStore) Read() core.NavState {
	if p := s.latest.Load(); p != nil {
		return *p
	}
	return core.NavState{}
}

// Subscribe registers a buffered channel receiving every subsequent write.
// The returned func unsubscribes and closes the channel; it is safe to call twice.
func (s *MemoryStore) Subscribe(buffer int) (<-chan core.NavState, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan core.NavState, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Writes returns the number of states written.
func (s *MemoryStore) Writes() uint64 {
	return s.writes.Load()
}

// Dropped returns the number of notifications dropped on full subscriber buffers.
func (s *MemoryStore) Dropped() uint64 {
	return s.dropped.Load()
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.closed = true
	return nil
}
