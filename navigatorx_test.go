package navigatorx

import (
	"context"
	"errors"
	"testing"

	"github.com/comalice/navigatorx/internal/config"
	"github.com/comalice/navigatorx/internal/extensibility"
	"github.com/comalice/navigatorx/testutil"
)

func TestNew_EndToEnd(t *testing.T) {
	root := buildShop(t)
	n, err := New(root, WithLogger(testutil.StartLog(t)), WithTransitionTimers(false))
	if err != nil {
		t.Fatal(err)
	}
	if got := n.State().Triple.Current.Route(); got != "home" {
		t.Fatalf("initial current = %q, want home", got)
	}

	state, err := Batch().Navigate("item/{sku}", Params{"sku": "A1"}).Navigate("confirm", nil).Apply(n)
	if err != nil {
		t.Fatal(err)
	}
	if state.Version != 2 || !state.Derived.IsModal {
		t.Errorf("state = version %d modal %v, want 2 true", state.Version, state.Derived.IsModal)
	}
	if got := state.Derived.Underlying.Route(); got != "item/{sku}" {
		t.Errorf("underlying = %q, want item/{sku}", got)
	}

	state, err = Batch().PopUpTo("home", false).Navigate("cart", nil).Apply(n)
	if err != nil {
		t.Fatal(err)
	}
	if state.Derived.FullPath != "shop/cart" || len(state.Triple.BackStack) != 2 {
		t.Errorf("FullPath = %q depth %d, want shop/cart depth 2", state.Derived.FullPath, len(state.Triple.BackStack))
	}

	if _, err := n.Navigate(Path("nowhere"), nil); !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("Navigate(nowhere) error = %v, want ErrRouteNotFound", err)
	}
	if _, err := n.Navigate(GraphStart("catalog"), nil); err != nil {
		t.Errorf("Navigate(graph catalog) error = %v", err)
	}
	if got := n.State().Triple.Current.Route(); got != "list" {
		t.Errorf("catalog start = %q, want list", got)
	}
}

func TestNew_FlowWithRegisteredCompletion(t *testing.T) {
	runner := extensibility.NewCompletionRunner()
	var finished []string
	runner.Register("finish", func(_ context.Context, r FlowResult) error {
		finished = append(finished, r.Route)
		return nil
	})

	root := NewGraph("root").StartAt("home").
		Screen("home").Screen("welcome").Screen("terms").Screen("profile").
		MustBuild()
	n, err := New(root,
		WithTransitionTimers(false),
		WithCompletionRunner(runner),
		WithFlow("signup", NewFlow("welcome", "profile").OnComplete("finish").Definition()),
	)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := n.StartFlow("signup", nil); err != nil {
		t.Fatal(err)
	}
	n.ModifyFlow("signup", AddSteps{At: 1, Steps: []FlowStep{RouteStep("terms", nil)}})
	for i := 0; i < 3; i++ {
		if _, err := n.AdvanceFlow(nil); err != nil {
			t.Fatalf("AdvanceFlow() #%d error = %v", i, err)
		}
	}
	if len(finished) != 1 || finished[0] != "signup" {
		t.Errorf("completions = %v, want [signup]", finished)
	}
	if def, _ := n.EffectiveFlow("signup"); len(def.Steps) != 2 {
		t.Errorf("effective steps after completion = %d, want 2 (own overrides cleared)", len(def.Steps))
	}
}

func TestNewFromTree(t *testing.T) {
	tree, err := config.DecodeTree([]byte(`
version: "7"
root:
  id: root
  start: {route: home}
  destinations:
    - route: home
    - route: welcome
flows:
  tour:
    steps:
      - route: welcome
`), config.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	n, err := NewFromTree(tree, WithTransitionTimers(false), WithSessionID("s-1"))
	if err != nil {
		t.Fatal(err)
	}
	if got := n.Flows(); len(got) != 1 || got[0] != "tour" {
		t.Errorf("Flows() = %v, want [tour]", got)
	}
	snap := n.Snapshot()
	if snap.TreeVersion != "7" || snap.SessionID != "s-1" {
		t.Errorf("snapshot = %+v, want tree version 7 and session s-1", snap)
	}

	if _, err := NewFromTree(&TreeFile{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewFromTree(empty) error = %v, want ErrInvalidConfig", err)
	}
}
