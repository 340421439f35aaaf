package core

import (
	"errors"
	"testing"

	"github.com/comalice/navigatorx/internal/primitives"
	"github.com/comalice/navigatorx/testutil"
)

func TestRouteIndex_Resolve(t *testing.T) {
	idx, err := NewRouteIndex(testutil.Tree())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		target        primitives.Target
		wantRoute     string
		wantGraph     string
		wantNavigated string
		wantParams    map[string]string
	}{
		{name: "root route", target: primitives.PathTarget("settings"), wantRoute: "settings", wantGraph: "root"},
		{name: "leading slash", target: primitives.PathTarget("/settings"), wantRoute: "settings", wantGraph: "root"},
		{name: "global nested route", target: primitives.PathTarget("edit"), wantRoute: "edit", wantGraph: "account"},
		{name: "full path", target: primitives.PathTarget("account/edit"), wantRoute: "edit", wantGraph: "account"},
		{name: "graph id", target: primitives.PathTarget("account"), wantRoute: "overview", wantGraph: "account"},
		{name: "graph start via reference", target: primitives.PathTarget("shop"), wantRoute: "list", wantGraph: "catalog", wantNavigated: "shop"},
		{name: "graph target", target: primitives.GraphTarget("catalog"), wantRoute: "list", wantGraph: "catalog"},
		{name: "scoped under graph path", target: primitives.PathTarget("shop/list"), wantRoute: "list", wantGraph: "catalog"},
		{
			name:       "placeholder route",
			target:     primitives.PathTarget("user/42/profile"),
			wantRoute:  "user/{id}/profile",
			wantGraph:  "account",
			wantParams: map[string]string{"id": "42"},
		},
		{
			name:       "placeholder full path",
			target:     primitives.PathTarget("shop/catalog/item/sku-9"),
			wantRoute:  "item/{sku}",
			wantGraph:  "catalog",
			wantParams: map[string]string{"sku": "sku-9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := idx.Resolve(tt.target)
			if err != nil {
				t.Fatalf("Resolve(%s) error = %v", tt.target, err)
			}
			if got := res.Destination.Route; got != tt.wantRoute {
				t.Errorf("route = %q, want %q", got, tt.wantRoute)
			}
			if res.GraphID != tt.wantGraph {
				t.Errorf("GraphID = %q, want %q", res.GraphID, tt.wantGraph)
			}
			if res.NavigatedGraphID != tt.wantNavigated {
				t.Errorf("NavigatedGraphID = %q, want %q", res.NavigatedGraphID, tt.wantNavigated)
			}
			for k, want := range tt.wantParams {
				if got, _ := res.Params.String(k); got != want {
					t.Errorf("Params[%q] = %q, want %q", k, got, want)
				}
			}
		})
	}
}

func TestRouteIndex_ResolveNotFound(t *testing.T) {
	idx, err := NewRouteIndex(testutil.Tree())
	if err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{"nowhere", "user/42", "account/nowhere", "user/42/profile/extra"} {
		if _, err := idx.Resolve(primitives.PathTarget(path)); !primitives.IsRouteNotFound(err) {
			t.Errorf("Resolve(%q) error = %v, want ErrRouteNotFound", path, err)
		}
	}
	stray := primitives.NewScreen("stray")
	if _, err := idx.Resolve(primitives.DestinationTarget(stray, "")); !primitives.IsRouteNotFound(err) {
		t.Errorf("Resolve(undeclared destination) error = %v, want ErrRouteNotFound", err)
	}
}

func TestRouteIndex_PlaceholderParamsOverridable(t *testing.T) {
	idx, err := NewRouteIndex(testutil.Tree())
	if err != nil {
		t.Fatal(err)
	}
	res, err := idx.Resolve(primitives.PathTarget("user/42/profile"))
	if err != nil {
		t.Fatal(err)
	}
	entry := res.Entry(primitives.Params{"id": "7", "tab": "posts"})
	if got, _ := entry.Params.String("id"); got != "7" {
		t.Errorf("id = %q, want explicit 7", got)
	}
	if got, _ := entry.Params.String("tab"); got != "posts" {
		t.Errorf("tab = %q, want posts", got)
	}
	if got := idx.FullPath(entry); got != "account/user/7/profile" {
		t.Errorf("FullPath() = %q, want account/user/7/profile", got)
	}
}

func TestRouteIndex_DestinationTargetPrefersGraph(t *testing.T) {
	shared := primitives.NewScreen("help")
	root := primitives.NewGraph("root").WithStart("home")
	root.Screen("home")
	root.AddDestination(shared)
	docs := root.Graph("docs").WithStart("help")
	docs.AddDestination(shared)

	idx, err := NewRouteIndex(root)
	if err != nil {
		t.Fatal(err)
	}
	res, err := idx.Resolve(primitives.DestinationTarget(shared, "docs"))
	if err != nil {
		t.Fatal(err)
	}
	if res.GraphID != "docs" {
		t.Errorf("GraphID = %q, want docs", res.GraphID)
	}
	res, err = idx.Resolve(primitives.DestinationTarget(shared, ""))
	if err != nil {
		t.Fatal(err)
	}
	if res.GraphID != "root" {
		t.Errorf("GraphID without preference = %q, want root", res.GraphID)
	}
	if got := idx.FullPath(res.Entry(nil)); got != "help" {
		t.Errorf("FullPath(root-owned) = %q, want help", got)
	}
}

func TestRouteIndex_CyclicStartReference(t *testing.T) {
	root := primitives.NewGraph("root").WithStart("home")
	root.Screen("home")
	x := root.Graph("x").WithStartGraph("y")
	x.Screen("x1")
	y := root.Graph("y").WithStartGraph("x")
	y.Screen("y1")

	_, err := NewRouteIndex(root)
	if !errors.Is(err, primitives.ErrInvalidConfig) {
		t.Fatalf("NewRouteIndex() error = %v, want ErrInvalidConfig", err)
	}
}

func TestRouteIndex_MissingStartGraph(t *testing.T) {
	root := primitives.NewGraph("root").WithStartGraph("ghost")
	root.Screen("home")
	if _, err := NewRouteIndex(root); !errors.Is(err, primitives.ErrInvalidConfig) {
		t.Fatalf("NewRouteIndex() error = %v, want ErrInvalidConfig", err)
	}
}

func TestRouteIndex_Locate(t *testing.T) {
	e := newTestEngine(t)
	in := startTriple(t, e)
	out := mustApply(t, e, in, nav("a"), nav("b"), nav("a"), nav("user/5/profile"))

	idx := e.Index()
	tests := []struct {
		route string
		want  int
	}{
		{"a", 3},
		{"b", 2},
		{"home", 0},
		{"user/{id}/profile", 4},
		{"account/user/5/profile", 4},
		{"settings", -1},
	}
	for _, tt := range tests {
		if got := idx.Locate(tt.route, out.BackStack); got != tt.want {
			t.Errorf("Locate(%q) = %d, want %d", tt.route, got, tt.want)
		}
	}
}

func TestRouteIndex_Ancestors(t *testing.T) {
	idx, err := NewRouteIndex(testutil.Tree())
	if err != nil {
		t.Fatal(err)
	}
	if got := idx.Ancestors("root"); len(got) != 0 {
		t.Errorf("Ancestors(root) = %v, want empty", got)
	}
	if got, want := idx.Ancestors("catalog"), []string{"shop", "catalog"}; !equalStringSlices(got, want) {
		t.Errorf("Ancestors(catalog) = %v, want %v", got, want)
	}
}

func TestMatchRoute(t *testing.T) {
	tests := []struct {
		pattern, path string
		wantOK        bool
		wantID        string
	}{
		{"user/{id}/profile", "user/42/profile", true, "42"},
		{"user/{id}/profile", "user/42/settings", false, ""},
		{"user/{id}/profile", "user/42", false, ""},
		{"user/{id}", "user/", false, ""},
		{"settings", "settings", true, ""},
	}
	for _, tt := range tests {
		params, ok := matchRoute(tt.pattern, tt.path)
		if ok != tt.wantOK {
			t.Errorf("matchRoute(%q, %q) ok = %v, want %v", tt.pattern, tt.path, ok, tt.wantOK)
			continue
		}
		if got, _ := params.String("id"); got != tt.wantID {
			t.Errorf("matchRoute(%q, %q) id = %q, want %q", tt.pattern, tt.path, got, tt.wantID)
		}
	}
}
