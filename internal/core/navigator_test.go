package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/comalice/navigatorx/internal/primitives"
	"github.com/comalice/navigatorx/testutil"
)

func TestNavigator_InitialState(t *testing.T) {
	n, store := newTestNavigator(t)

	st := n.State()
	if st.Version != 1 || store.Writes() != 1 {
		t.Errorf("Version = %d after %d writes, want 1/1", st.Version, store.Writes())
	}
	if st.Derived.FullPath != "home" || st.Triple.Current.Route() != "home" {
		t.Errorf("initial route = %q", st.Derived.FullPath)
	}
	if st.SessionID == "" || st.SessionID != n.SessionID() {
		t.Errorf("SessionID = %q, want navigator session %q", st.SessionID, n.SessionID())
	}
}

func TestNavigator_OnePublishPerBatch(t *testing.T) {
	n, store := newTestNavigator(t)

	st, err := n.Apply(nav("a"), nav("confirm"), nav("b"), primitives.Step{Op: primitives.OpReplace, Target: primitives.PathTarget("c")})
	if err != nil {
		t.Fatal(err)
	}
	if got := store.Writes(); got != 2 {
		t.Errorf("writes = %d, want 2 (initial + one batch)", got)
	}
	if st.Version != 2 {
		t.Errorf("Version = %d, want 2", st.Version)
	}
	if got, want := routes(st.Triple.BackStack), []string{"home", "a", "confirm", "c"}; !equalStringSlices(got, want) {
		t.Errorf("BackStack = %v, want %v", got, want)
	}
}

func TestNavigator_RejectedBatchPublishesNothing(t *testing.T) {
	n, store := newTestNavigator(t)
	before := n.State()

	_, err := n.Apply(nav("a"), nav("nowhere"))
	if !primitives.IsRouteNotFound(err) {
		t.Fatalf("Apply() error = %v, want ErrRouteNotFound", err)
	}
	var nerr *primitives.NavigationError
	if !errors.As(err, &nerr) || nerr.Route != "nowhere" {
		t.Errorf("error = %#v, want NavigationError for nowhere", err)
	}
	if store.Writes() != 1 || n.State().Version != before.Version {
		t.Errorf("rejected batch published: writes = %d", store.Writes())
	}
}

func TestNavigator_ApplyEach(t *testing.T) {
	n, store := newTestNavigator(t)

	popRoot := primitives.Step{Op: primitives.OpPopUpTo, PopTo: primitives.PathTarget("home"), Inclusive: true}
	st, errs := n.ApplyEach(
		[]primitives.Step{nav("a")},
		[]primitives.Step{popRoot},
		[]primitives.Step{{Op: primitives.OpClearBackStack}},
		[]primitives.Step{nav("b")},
	)
	if errs[0] != nil || errs[3] != nil {
		t.Errorf("errs = %v, want the first and last batch accepted", errs)
	}
	for _, i := range []int{1, 2} {
		if !primitives.IsInvalidOperation(errs[i]) {
			t.Errorf("errs[%d] = %v, want ErrInvalidOperation", i, errs[i])
		}
	}
	if got := store.Writes(); got != 2 || st.Version != 2 {
		t.Errorf("writes = %d, Version = %d, want one publish", got, st.Version)
	}
	if got, want := routes(st.Triple.BackStack), []string{"home", "a", "b"}; !equalStringSlices(got, want) {
		t.Errorf("BackStack = %v, want %v", got, want)
	}

	before := n.State().Version
	if _, errs := n.ApplyEach([]primitives.Step{nav("nowhere")}); errs[0] == nil || n.State().Version != before {
		t.Errorf("all-rejected ApplyEach published or accepted: errs = %v", errs)
	}
}

func TestNavigator_ZeroDimAlpha(t *testing.T) {
	n, _ := newTestNavigator(t, WithDimAlpha(0))
	st, err := n.Apply(nav("confirm"))
	if err != nil {
		t.Fatal(err)
	}
	if got := st.Derived.VisibleLayers[0]; !got.Dimmed || got.Alpha != 0 {
		t.Errorf("bottom layer = %+v, want dimmed at 0", got)
	}

	n, _ = newTestNavigator(t)
	st, _ = n.Apply(nav("confirm"))
	if got := st.Derived.VisibleLayers[0].Alpha; got != DefaultDimAlpha {
		t.Errorf("default alpha = %v, want %v", got, DefaultDimAlpha)
	}
}

func TestNavigator_Conveniences(t *testing.T) {
	n, _ := newTestNavigator(t)

	if _, err := n.Navigate(primitives.PathTarget("a"), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := n.Navigate(primitives.PathTarget("b"), nil); err != nil {
		t.Fatal(err)
	}
	if got := n.Locate("a"); got != 1 {
		t.Errorf("Locate(a) = %d, want 1", got)
	}
	st, err := n.Replace(primitives.PathTarget("c"), primitives.Params{"x": 1})
	if err != nil {
		t.Fatal(err)
	}
	if st.Triple.Current.Route() != "c" {
		t.Errorf("after Replace current = %q", st.Triple.Current.Route())
	}
	if st, _ = n.PopUpTo(primitives.PathTarget("a"), false); st.Triple.Current.Route() != "a" {
		t.Errorf("after PopUpTo current = %q", st.Triple.Current.Route())
	}
	if st, _ = n.Back(); st.Triple.Current.Route() != "home" {
		t.Errorf("after Back current = %q", st.Triple.Current.Route())
	}
	if st, _ = n.Back(); st.Triple.Current.Route() != "home" || len(st.Triple.BackStack) != 1 {
		t.Errorf("Back on single entry changed the stack: %v", routes(st.Triple.BackStack))
	}
	if st, _ = n.ClearAndNavigate(primitives.PathTarget("settings"), nil); len(st.Triple.BackStack) != 1 {
		t.Errorf("after ClearAndNavigate stack = %v", routes(st.Triple.BackStack))
	}
}

func TestNavigator_TransitionFlagWithoutTimers(t *testing.T) {
	n, _ := newTestNavigator(t)

	st, err := n.Navigate(primitives.PathTarget("settings"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Transition.Animating || st.Transition.Plan.Duration != testutil.SlideDuration {
		t.Errorf("Transition = %+v, want animating for %v", st.Transition, testutil.SlideDuration)
	}
	st, _ = n.Navigate(primitives.PathTarget("settings"), nil)
	if st.Transition.Animating {
		t.Error("same-route navigation animates")
	}
}

func TestNavigator_TransitionResetAfterDuration(t *testing.T) {
	n, _ := newTestNavigator(t, WithTransitionTimers(true))

	st, err := n.Navigate(primitives.PathTarget("settings"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Transition.Animating {
		t.Fatal("expected animating state")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cur := n.State()
		if !cur.Transition.Animating {
			if cur.Version != st.Version+1 {
				t.Errorf("reset Version = %d, want %d", cur.Version, st.Version+1)
			}
			if cur.Triple.Current.Route() != "settings" {
				t.Errorf("reset changed the route to %q", cur.Triple.Current.Route())
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("transition state was never reset")
}

func TestNavigator_SupersededResetIsSkipped(t *testing.T) {
	n, store := newTestNavigator(t)

	st, _ := n.Navigate(primitives.PathTarget("settings"), nil)
	if _, err := n.Navigate(primitives.PathTarget("a"), nil); err != nil {
		t.Fatal(err)
	}
	writes := store.Writes()
	n.resetTransition(st.Version)
	if store.Writes() != writes {
		t.Error("stale reset wrote a new state")
	}
}

func TestNavigator_SnapshotRestore(t *testing.T) {
	n, _ := newTestNavigator(t)
	if _, err := n.Apply(nav("user/42/profile"), nav("confirm"), nav("settings")); err != nil {
		t.Fatal(err)
	}
	snap := n.Snapshot()
	if len(snap.BackStack) != 4 || snap.BackStack[1].Path != "account/user/{id}/profile" {
		t.Fatalf("snapshot stack = %+v", snap.BackStack)
	}

	other, _ := newTestNavigator(t)
	st, err := other.Restore(snap)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := routes(st.Triple.BackStack), []string{"home", "user/{id}/profile", "confirm", "settings"}; !equalStringSlices(got, want) {
		t.Errorf("restored stack = %v, want %v", got, want)
	}
	if st.Derived.FullPath != "settings" {
		t.Errorf("restored FullPath = %q", st.Derived.FullPath)
	}
	ctx, ok := st.Triple.Modals.Lookup("confirm")
	if !ok || ctx.NavigatedAwayTo != "settings" || ctx.Underlying.Route() != "user/{id}/profile" {
		t.Errorf("restored modal context = %+v, %v", ctx, ok)
	}

	back, _ := other.Back()
	if back.Triple.Current.Route() != "confirm" {
		t.Errorf("Back after restore = %q, want confirm", back.Triple.Current.Route())
	}
	if back.Derived.Underlying.Route() != "user/{id}/profile" {
		t.Errorf("Underlying after Back = %q", back.Derived.Underlying.Route())
	}
}

func TestNavigator_RestoreUnknownRoute(t *testing.T) {
	n, store := newTestNavigator(t)
	snap := Snapshot{BackStack: []EntrySnapshot{{Path: "home", GraphID: "root"}, {Path: "gone", GraphID: "root"}}}

	if _, err := n.Restore(snap); !primitives.IsRouteNotFound(err) {
		t.Fatalf("Restore() error = %v, want ErrRouteNotFound", err)
	}
	if store.Writes() != 1 {
		t.Errorf("failed restore published %d states", store.Writes()-1)
	}
	if _, err := n.Restore(Snapshot{}); !primitives.IsInvalidOperation(err) {
		t.Errorf("Restore(empty) error = %v, want ErrInvalidOperation", err)
	}
}

type memPersister struct {
	mu    sync.Mutex
	saved map[string]Snapshot
	saves chan uint64
}

func (p *memPersister) Save(_ context.Context, s Snapshot) error {
	p.mu.Lock()
	if p.saved == nil {
		p.saved = make(map[string]Snapshot)
	}
	if prev, ok := p.saved[s.SessionID]; !ok || prev.Version < s.Version {
		p.saved[s.SessionID] = s
	}
	p.mu.Unlock()
	p.saves <- s.Version
	return nil
}

func (p *memPersister) Load(_ context.Context, id string) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.saved[id]
	if !ok {
		return Snapshot{}, errors.New("not found")
	}
	return s, nil
}

func TestNavigator_PersistsAfterPublish(t *testing.T) {
	p := &memPersister{saves: make(chan uint64, 8)}
	n, _ := newTestNavigator(t, WithPersister(p), WithSessionID("s-1"))
	if _, err := n.Navigate(primitives.PathTarget("a"), nil); err != nil {
		t.Fatal(err)
	}

	seen := map[uint64]bool{}
	for len(seen) < 2 {
		select {
		case v := <-p.saves:
			seen[v] = true
		case <-time.After(time.Second):
			t.Fatalf("persisted versions = %v, want 1 and 2", seen)
		}
	}

	other, _ := newTestNavigator(t, WithPersister(p))
	st, err := other.Load(context.Background(), "s-1")
	if err != nil {
		t.Fatal(err)
	}
	if st.Triple.Current.Route() != "a" {
		t.Errorf("loaded current = %q, want a", st.Triple.Current.Route())
	}
}

type countingMetrics struct {
	mu                      sync.Mutex
	applied, rejected, pops int
	started, completed      map[string]int
}

func (m *countingMetrics) BatchApplied(_ int, pop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied++
	if pop {
		m.pops++
	}
}

func (m *countingMetrics) BatchRejected(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected++
}

func (m *countingMetrics) FlowStarted(route string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started[route]++
}

func (m *countingMetrics) FlowCompleted(route string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed[route]++
}

func TestNavigator_Metrics(t *testing.T) {
	m := &countingMetrics{started: map[string]int{}, completed: map[string]int{}}
	n, _ := newTestNavigator(t, WithMetrics(m))

	_, _ = n.Navigate(primitives.PathTarget("a"), nil)
	_, _ = n.Back()
	_, _ = n.Navigate(primitives.PathTarget("nowhere"), nil)

	if m.applied != 2 || m.pops != 1 || m.rejected != 1 {
		t.Errorf("applied/pops/rejected = %d/%d/%d, want 2/1/1", m.applied, m.pops, m.rejected)
	}
}

func TestNavigator_VisualizeWithoutVisualizer(t *testing.T) {
	n, _ := newTestNavigator(t)
	if got := n.Visualize(); !strings.HasPrefix(got, "ERROR:") {
		t.Errorf("Visualize() = %q, want error message", got)
	}
}

func TestNavigator_InvalidFlowDeclaration(t *testing.T) {
	bad := primitives.FlowDefinition{Steps: []primitives.FlowStep{primitives.RouteStep("nowhere", nil)}}
	_, err := NewNavigator(testutil.Tree(), WithFlow("bad", bad))
	if !errors.Is(err, primitives.ErrInvalidConfig) {
		t.Fatalf("NewNavigator() error = %v, want ErrInvalidConfig", err)
	}
}
