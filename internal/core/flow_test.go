package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/comalice/navigatorx/internal/primitives"
	"github.com/comalice/navigatorx/testutil"
)

func tourFlow(policy primitives.ClearPolicy) primitives.FlowDefinition {
	return primitives.FlowDefinition{
		Steps: []primitives.FlowStep{
			primitives.RouteStep("a", nil),
			primitives.RouteStep("b", nil),
			primitives.RouteStep("c", nil),
			primitives.RouteStep("d", nil),
		},
		ClearPolicy: policy,
	}
}

func TestFlow_OnboardingScenario(t *testing.T) {
	var done testutil.Completions
	n, store := newTestNavigator(t, WithFlow("onboarding", testutil.Onboarding(done.Handler())))

	st, err := n.StartFlow("onboarding", nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.Triple.Current.Route() != "welcome" || st.Flow == nil || st.Flow.StepIndex != 0 {
		t.Fatalf("after start: route %q flow %+v", st.Triple.Current.Route(), st.Flow)
	}
	if store.Writes() != 2 {
		t.Errorf("start published %d states, want 1", store.Writes()-1)
	}

	st, err = n.AdvanceFlow(nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.Triple.Current.Route() != "profile-setup" || st.Flow.StepIndex != 1 {
		t.Fatalf("after advance: route %q flow %+v", st.Triple.Current.Route(), st.Flow)
	}
	if !st.Flow.IsOnFinalStep() {
		t.Error("IsOnFinalStep() = false on last step")
	}

	st, err = n.AdvanceFlow(primitives.Params{"name": "ada"})
	if err != nil {
		t.Fatal(err)
	}
	if st.Flow != nil {
		t.Errorf("flow still active after completion: %+v", st.Flow)
	}
	if st.Triple.Current.Route() != "profile-setup" {
		t.Errorf("completion navigated to %q", st.Triple.Current.Route())
	}
	if got := done.Count("onboarding"); got != 1 {
		t.Errorf("completion calls = %d, want 1", got)
	}
	if got, _ := done.Last().Params.String("name"); got != "ada" {
		t.Errorf("completion params name = %q, want ada", got)
	}

	if _, err := n.AdvanceFlow(nil); !errors.Is(err, primitives.ErrNoActiveFlow) {
		t.Errorf("AdvanceFlow() without flow error = %v, want ErrNoActiveFlow", err)
	}
	if got := done.Count("onboarding"); got != 1 {
		t.Errorf("completion calls = %d after extra advance, want 1", got)
	}
}

func TestFlow_StartWhileOtherActiveIsNoop(t *testing.T) {
	n, store := newTestNavigator(t,
		WithFlow("onboarding", testutil.Onboarding(nil)),
		WithFlow("tour", tourFlow("")),
	)
	if _, err := n.StartFlow("onboarding", nil); err != nil {
		t.Fatal(err)
	}
	writes := store.Writes()

	st, err := n.StartFlow("tour", nil)
	if err != nil {
		t.Errorf("StartFlow() error = %v, want silent no-op", err)
	}
	if st.Flow.Route != "onboarding" || store.Writes() != writes {
		t.Errorf("second start changed state: flow %q, writes %d -> %d", st.Flow.Route, writes, store.Writes())
	}

	if st, _ := n.StartFlow("missing", nil); st.Flow.Route != "onboarding" {
		t.Errorf("unknown flow start changed active flow to %q", st.Flow.Route)
	}
}

func TestFlow_RestartSameFlow(t *testing.T) {
	n, _ := newTestNavigator(t, WithFlow("tour", tourFlow("")))
	first, _ := n.StartFlow("tour", nil)
	_, _ = n.AdvanceFlow(nil)

	st, _ := n.StartFlow("tour", nil)
	if st.Flow.StepIndex != 0 || st.Triple.Current.Route() != "a" {
		t.Errorf("restart = step %d at %q, want 0 at a", st.Flow.StepIndex, st.Triple.Current.Route())
	}
	if st.Flow.RunID == first.Flow.RunID {
		t.Error("restart reused the run id")
	}
}

func TestFlow_StepParamsMerge(t *testing.T) {
	def := primitives.FlowDefinition{Steps: []primitives.FlowStep{
		primitives.RouteStep("user/{id}/profile", primitives.Params{"id": "1", "tab": "info"}),
	}}
	n, _ := newTestNavigator(t, WithFlow("profile", def))

	st, _ := n.StartFlow("profile", primitives.Params{"id": "42"})
	if st.Derived.FullPath != "account/user/42/profile" {
		t.Errorf("FullPath = %q, want caller id to win", st.Derived.FullPath)
	}
	if got, _ := st.Triple.Current.Params.String("tab"); got != "info" {
		t.Errorf("tab = %q, want step param", got)
	}
}

func TestFlowModifications_Reanchor(t *testing.T) {
	def := tourFlow("")
	tests := []struct {
		name      string
		mod       FlowModification
		wantIndex int
		wantSteps int
	}{
		{"remove before current", RemoveSteps{Indices: []int{0}}, 1, 3},
		{"remove after current", RemoveSteps{Indices: []int{3}}, 2, 3},
		{"remove current", RemoveSteps{Indices: []int{2}}, 2, 3},
		{"remove tail including current", RemoveSteps{Indices: []int{2, 3}}, 1, 2},
		{"insert at start", AddSteps{At: 0, Steps: []primitives.FlowStep{primitives.RouteStep("settings", nil)}}, 3, 5},
		{"insert at current", AddSteps{At: 2, Steps: []primitives.FlowStep{primitives.RouteStep("settings", nil)}}, 3, 5},
		{"insert after current", AddSteps{At: 3, Steps: []primitives.FlowStep{primitives.RouteStep("settings", nil)}}, 2, 5},
		{"append", AddSteps{At: -1, Steps: []primitives.FlowStep{primitives.RouteStep("settings", nil), primitives.RouteStep("done", nil)}}, 2, 6},
		{"replace", ReplaceStep{Index: 1, Step: primitives.RouteStep("settings", nil)}, 2, 4},
		{"update params", UpdateStepParams{Index: 2, Params: primitives.Params{"k": "v"}}, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, idx, err := tt.mod.Apply(def, 2)
			if err != nil {
				t.Fatal(err)
			}
			if idx != tt.wantIndex || len(out.Steps) != tt.wantSteps {
				t.Errorf("index/steps = %d/%d, want %d/%d", idx, len(out.Steps), tt.wantIndex, tt.wantSteps)
			}
			if len(def.Steps) != 4 || def.Steps[1].Route != "b" || def.Steps[2].Params != nil {
				t.Errorf("original definition mutated: %+v", def.Steps)
			}
		})
	}
}

func TestFlowModifications_Errors(t *testing.T) {
	def := tourFlow("")
	mods := []FlowModification{
		RemoveSteps{Indices: []int{4}},
		AddSteps{At: 9, Steps: []primitives.FlowStep{primitives.RouteStep("a", nil)}},
		AddSteps{At: 0},
		ReplaceStep{Index: -1, Step: primitives.RouteStep("a", nil)},
		ReplaceStep{Index: 0},
		UpdateStepParams{Index: 4},
	}
	for _, mod := range mods {
		if _, _, err := mod.Apply(def, 0); err == nil {
			t.Errorf("%T%+v.Apply() error = nil", mod, mod)
		}
	}
}

func TestFlow_ModifyActiveFlowReanchors(t *testing.T) {
	n, store := newTestNavigator(t, WithFlow("tour", tourFlow("")))
	_, _ = n.StartFlow("tour", nil)
	_, _ = n.AdvanceFlow(nil)
	_, _ = n.AdvanceFlow(nil)
	if got := n.State().Flow.StepIndex; got != 2 {
		t.Fatalf("StepIndex = %d, want 2", got)
	}

	writes := store.Writes()
	st := n.ModifyFlow("tour", RemoveSteps{Indices: []int{0}})
	if st.Flow.StepIndex != 1 || st.Flow.StepCount != 3 {
		t.Errorf("after remove: %+v, want index 1 of 3", st.Flow)
	}
	if store.Writes() != writes+1 {
		t.Errorf("modify published %d states, want 1", store.Writes()-writes)
	}
	if st.Triple.Current.Route() != "c" {
		t.Errorf("modify navigated to %q", st.Triple.Current.Route())
	}

	st = n.ModifyFlow("tour", AddSteps{At: 0, Steps: []primitives.FlowStep{primitives.RouteStep("settings", nil)}})
	if st.Flow.StepIndex != 2 || st.Flow.StepCount != 4 {
		t.Errorf("after insert: %+v, want index 2 of 4", st.Flow)
	}

	st, _ = n.AdvanceFlow(nil)
	if st.Triple.Current.Route() != "d" {
		t.Errorf("advance after modify went to %q, want d", st.Triple.Current.Route())
	}

	if def := n.declared["tour"]; len(def.Steps) != 4 || def.Steps[0].Route != "a" {
		t.Errorf("declared definition mutated: %+v", def.Steps)
	}
}

func TestFlow_ModifyRejected(t *testing.T) {
	n, store := newTestNavigator(t, WithFlow("tour", tourFlow("")))
	_, _ = n.StartFlow("tour", nil)
	writes := store.Writes()

	n.ModifyFlow("tour", RemoveSteps{Indices: []int{7}})
	n.ModifyFlow("tour", AddSteps{At: -1, Steps: []primitives.FlowStep{primitives.RouteStep("nowhere", nil)}})
	n.ModifyFlow("missing", RemoveSteps{Indices: []int{0}})

	if store.Writes() != writes {
		t.Errorf("rejected modifications published %d states", store.Writes()-writes)
	}
	if def, _ := n.EffectiveFlow("tour"); len(def.Steps) != 4 {
		t.Errorf("effective steps = %d, want 4", len(def.Steps))
	}
}

func TestFlow_ModifyInactiveStoresOverride(t *testing.T) {
	n, store := newTestNavigator(t, WithFlow("tour", tourFlow("")))
	writes := store.Writes()

	n.ModifyFlow("tour", ReplaceStep{Index: 0, Step: primitives.RouteStep("settings", nil)})
	if store.Writes() != writes {
		t.Error("modifying an inactive flow published state")
	}
	st, _ := n.StartFlow("tour", nil)
	if st.Triple.Current.Route() != "settings" {
		t.Errorf("start used %q, want overridden first step", st.Triple.Current.Route())
	}
}

func TestFlow_ClearPolicies(t *testing.T) {
	tests := []struct {
		policy         primitives.ClearPolicy
		wantOwnKept    bool
		wantOthersKept bool
	}{
		{primitives.ClearNone, true, true},
		{primitives.ClearOwn, false, true},
		{"", false, true},
		{primitives.ClearAll, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			short := primitives.FlowDefinition{
				Steps:       []primitives.FlowStep{primitives.RouteStep("a", nil)},
				ClearPolicy: tt.policy,
			}
			n, _ := newTestNavigator(t, WithFlow("short", short), WithFlow("tour", tourFlow("")))
			n.ModifyFlow("short", UpdateStepParams{Index: 0, Params: primitives.Params{"k": "v"}})
			n.ModifyFlow("tour", RemoveSteps{Indices: []int{3}})

			_, _ = n.StartFlow("short", nil)
			if _, err := n.AdvanceFlow(nil); err != nil {
				t.Fatal(err)
			}

			_, ownKept := n.overrides["short"]
			_, othersKept := n.overrides["tour"]
			if ownKept != tt.wantOwnKept || othersKept != tt.wantOthersKept {
				t.Errorf("own/others kept = %v/%v, want %v/%v", ownKept, othersKept, tt.wantOwnKept, tt.wantOthersKept)
			}
		})
	}
}

func TestFlow_CompletionFailuresAreContained(t *testing.T) {
	panicky := primitives.FlowDefinition{
		Steps: []primitives.FlowStep{primitives.RouteStep("a", nil)},
		OnComplete: func(context.Context, primitives.FlowResult) error {
			panic("boom")
		},
	}
	named := primitives.FlowDefinition{
		Steps:      []primitives.FlowStep{primitives.RouteStep("b", nil)},
		OnComplete: "needs-runner",
	}
	n, _ := newTestNavigator(t, WithFlow("panicky", panicky), WithFlow("named", named))

	for _, route := range []string{"panicky", "named"} {
		_, _ = n.StartFlow(route, nil)
		st, err := n.AdvanceFlow(nil)
		if err != nil {
			t.Errorf("%s: AdvanceFlow() error = %v", route, err)
		}
		if st.Flow != nil {
			t.Errorf("%s: flow not cleared", route)
		}
	}
}

type recordingRunner struct {
	mu   sync.Mutex
	refs []primitives.CompletionRef
}

func (r *recordingRunner) Run(_ context.Context, ref primitives.CompletionRef, _ primitives.FlowResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs = append(r.refs, ref)
	return nil
}

func TestFlow_CompletionRunnerAndReplaceCompletion(t *testing.T) {
	runner := &recordingRunner{}
	def := primitives.FlowDefinition{
		Steps:      []primitives.FlowStep{primitives.RouteStep("a", nil)},
		OnComplete: "first",
	}
	n, _ := newTestNavigator(t, WithFlow("f", def), WithCompletionRunner(runner), WithFlow("g", def))

	n.ModifyFlow("f", ReplaceCompletion{OnComplete: "second"})
	_, _ = n.StartFlow("f", nil)
	_, _ = n.AdvanceFlow(nil)

	if len(runner.refs) != 1 || runner.refs[0] != "second" {
		t.Errorf("runner refs = %v, want [second]", runner.refs)
	}
}

func TestFlow_Exit(t *testing.T) {
	var done testutil.Completions
	n, _ := newTestNavigator(t, WithFlow("onboarding", testutil.Onboarding(done.Handler())))

	if _, err := n.ExitFlow(); !errors.Is(err, primitives.ErrNoActiveFlow) {
		t.Errorf("ExitFlow() without flow error = %v", err)
	}
	_, _ = n.StartFlow("onboarding", nil)
	st, err := n.ExitFlow()
	if err != nil {
		t.Fatal(err)
	}
	if st.Flow != nil || st.Triple.Current.Route() != "welcome" {
		t.Errorf("after exit flow = %+v at %q", st.Flow, st.Triple.Current.Route())
	}
	if done.Count("onboarding") != 0 {
		t.Error("exit ran the completion handler")
	}
}

func TestFlow_ConcurrentAdvance(t *testing.T) {
	const steps = 40
	routes := []string{"a", "b", "c", "d"}
	def := primitives.FlowDefinition{}
	for i := 0; i < steps; i++ {
		def.Steps = append(def.Steps, primitives.RouteStep(routes[i%len(routes)], nil))
	}
	var done testutil.Completions
	def.OnComplete = done.Handler()

	n, _ := newTestNavigator(t, WithFlow("long", def))
	_, _ = n.StartFlow("long", nil)

	var wg sync.WaitGroup
	for i := 0; i < steps-1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := n.AdvanceFlow(nil); err != nil {
				t.Errorf("AdvanceFlow() error = %v", err)
			}
		}()
	}
	wg.Wait()

	st := n.State()
	if st.Flow == nil || st.Flow.StepIndex != steps-1 {
		t.Fatalf("flow = %+v, want index %d", st.Flow, steps-1)
	}
	if len(st.Triple.BackStack) != steps+1 {
		t.Errorf("stack depth = %d, want %d", len(st.Triple.BackStack), steps+1)
	}

	_, _ = n.AdvanceFlow(nil)
	if done.Count("long") != 1 {
		t.Errorf("completion calls = %d, want 1", done.Count("long"))
	}
}
