package core

import (
	"sync"
	"testing"

	"github.com/comalice/navigatorx/internal/primitives"
	"github.com/comalice/navigatorx/testutil"
)

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	idx, err := NewRouteIndex(testutil.Tree())
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(idx)
}

// startTriple is the initial state: [home].
func startTriple(t *testing.T, e *Engine) Triple {
	t.Helper()
	res, err := e.Index().Start()
	if err != nil {
		t.Fatal(err)
	}
	entry := res.Entry(nil).At(0)
	return Triple{Current: entry, BackStack: []primitives.Entry{entry}, Modals: primitives.ModalContexts{}}
}

func nav(path string) primitives.Step {
	return primitives.Step{Op: primitives.OpNavigate, Target: primitives.PathTarget(path)}
}

func mustApply(t *testing.T, e *Engine, in Triple, steps ...primitives.Step) Triple {
	t.Helper()
	out, err := e.Apply(steps, in)
	if err != nil {
		t.Fatalf("Apply(%v) error = %v", steps, err)
	}
	return out
}

func routes(stack []primitives.Entry) []string {
	out := make([]string, len(stack))
	for i, e := range stack {
		out[i] = e.Route()
	}
	return out
}

func checkContiguous(t *testing.T, stack []primitives.Entry) {
	t.Helper()
	for i, e := range stack {
		if e.Position != i {
			t.Errorf("BackStack[%d].Position = %d, want %d", i, e.Position, i)
		}
	}
}

// recordingStore keeps every written state.
type recordingStore struct {
	mu     sync.Mutex
	states []NavState
}

func (s *recordingStore) Write(state NavState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
}

func (s *recordingStore) Read() NavState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.states) == 0 {
		return NavState{}
	}
	return s.states[len(s.states)-1]
}

func (s *recordingStore) Subscribe(int) (<-chan NavState, func()) {
	return nil, func() {}
}

func (s *recordingStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

func newTestNavigator(t *testing.T, opts ...Option) (*Navigator, *recordingStore) {
	t.Helper()
	store := &recordingStore{}
	base := []Option{
		WithStore(store),
		WithTransitionTimers(false),
		WithLogger(testutil.StartLog(t)),
	}
	n, err := NewNavigator(testutil.Tree(), append(base, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return n, store
}
