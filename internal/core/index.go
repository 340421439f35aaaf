// Route index: flattens the declaration tree once into lookup tables and answers
// resolve/locate/full-path queries. Read-only after construction, safe to share.

package core

import (
	"fmt"
	"strings"

	"github.com/comalice/navigatorx/internal/primitives"
)

// destRef pins a destination to the graph that owns it.
type destRef struct {
	dest  *primitives.Destination
	graph string
}

// Resolution is the outcome of resolving a target.
type Resolution struct {
	Destination *primitives.Destination
	// GraphID owns Destination.
	GraphID string
	// NavigatedGraphID is the graph that was navigated into, when that graph's
	// start destination belongs to another graph. Empty otherwise.
	NavigatedGraphID string
	// Params holds values bound by {placeholder} segments.
	Params primitives.Params
}

// Entry builds an unpositioned entry, explicit params overriding extracted ones.
func (r Resolution) Entry(params primitives.Params) primitives.Entry {
	return primitives.Entry{
		Destination:      r.Destination,
		Params:           r.Params.Merge(params),
		GraphID:          r.GraphID,
		NavigatedGraphID: r.NavigatedGraphID,
	}
}

// RouteIndex is the precomputed lookup structure over a declaration tree.
type RouteIndex struct {
	root   *primitives.Graph
	graphs map[string]*primitives.Graph
	// chains[graph] lists graph ids from the first level below root down to graph.
	chains map[string][]string
	// scoped[graph] maps routes reachable in graph's subtree; scoped[root] is global.
	scoped     map[string]map[string]destRef
	owners     map[*primitives.Destination][]string
	fullPaths  map[destRef]string
	byPath     map[string]destRef
	graphPaths map[string]string
	patterns   []destRef
}

// NewRouteIndex validates root and precomputes every lookup table.
// Fails with ErrInvalidConfig when a start destination cannot be resolved.
func NewRouteIndex(root *primitives.Graph) (*RouteIndex, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root graph", primitives.ErrInvalidConfig)
	}
	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", primitives.ErrInvalidConfig, err)
	}
	graphs, err := root.Index()
	if err != nil {
		return nil, err
	}

	idx := &RouteIndex{
		root:       root,
		graphs:     graphs,
		chains:     make(map[string][]string),
		scoped:     make(map[string]map[string]destRef),
		owners:     make(map[*primitives.Destination][]string),
		fullPaths:  make(map[destRef]string),
		byPath:     make(map[string]destRef),
		graphPaths: make(map[string]string),
	}
	_ = root.Walk(func(g *primitives.Graph, parents []*primitives.Graph) error {
		idx.precompute(g, parents)
		return nil
	})

	for id := range graphs {
		if _, err := idx.startOf(id, nil); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// precompute registers g's own destinations. Walk is pre-order, so a graph's own
// routes shadow same-named routes of nested graphs in every scoped table.
func (idx *RouteIndex) precompute(g *primitives.Graph, parents []*primitives.Graph) {
	var chain []string
	if len(parents) > 0 {
		chain = append(append(chain, idx.chains[parents[len(parents)-1].ID]...), g.ID)
		idx.graphPaths[strings.Join(chain, "/")] = g.ID
	}
	idx.chains[g.ID] = chain
	idx.scoped[g.ID] = make(map[string]destRef)

	for _, d := range g.Destinations {
		ref := destRef{dest: d, graph: g.ID}
		idx.owners[d] = append(idx.owners[d], g.ID)

		full := d.Route
		if len(chain) > 0 {
			full = strings.Join(chain, "/") + "/" + d.Route
		}
		idx.fullPaths[ref] = full
		if _, taken := idx.byPath[full]; !taken {
			idx.byPath[full] = ref
		}
		if d.HasPlaceholders() {
			idx.patterns = append(idx.patterns, ref)
		}

		for _, scope := range append(parentIDs(parents), g.ID) {
			if _, taken := idx.scoped[scope][d.Route]; !taken {
				idx.scoped[scope][d.Route] = ref
			}
		}
	}
}

func parentIDs(parents []*primitives.Graph) []string {
	ids := make([]string, len(parents))
	for i, p := range parents {
		ids[i] = p.ID
	}
	return ids
}

// startOf resolves a graph's start destination, following graph references with a
// visited-set guard.
func (idx *RouteIndex) startOf(graphID string, visited map[string]bool) (destRef, error) {
	g, ok := idx.graphs[graphID]
	if !ok {
		return destRef{}, primitives.Errorf("resolve", graphID, primitives.ErrRouteNotFound, "unknown graph")
	}
	if visited[graphID] {
		return destRef{}, primitives.Errorf("resolve", graphID, primitives.ErrInvalidConfig, "cyclic start reference")
	}
	if visited == nil {
		visited = make(map[string]bool)
	}
	visited[graphID] = true

	if g.Start.Route != "" {
		d := g.Destination(g.Start.Route)
		if d == nil {
			return destRef{}, primitives.Errorf("resolve", graphID, primitives.ErrInvalidConfig, "start route %q not declared", g.Start.Route)
		}
		return destRef{dest: d, graph: g.ID}, nil
	}
	if _, ok := idx.graphs[g.Start.Graph]; !ok {
		return destRef{}, primitives.Errorf("resolve", graphID, primitives.ErrInvalidConfig, "start graph %q not declared", g.Start.Graph)
	}
	return idx.startOf(g.Start.Graph, visited)
}

// Root returns the declaration tree's root graph.
func (idx *RouteIndex) Root() *primitives.Graph {
	return idx.root
}

// Graph returns a graph by id.
func (idx *RouteIndex) Graph(id string) (*primitives.Graph, bool) {
	g, ok := idx.graphs[id]
	return g, ok
}

// Ancestors returns the ancestor chain of a graph (empty for root), outermost first.
func (idx *RouteIndex) Ancestors(graphID string) []string {
	return append([]string(nil), idx.chains[graphID]...)
}

// Start resolves the root graph's start destination.
func (idx *RouteIndex) Start() (Resolution, error) {
	return idx.Resolve(primitives.GraphTarget(idx.root.ID))
}

// Resolve turns a target into a concrete destination and its owning graph.
func (idx *RouteIndex) Resolve(t primitives.Target) (Resolution, error) {
	switch {
	case t.Destination != nil:
		return idx.resolveDestination(t.Destination, t.GraphID)
	case t.Path != "":
		return idx.resolvePath(t.Path)
	case t.GraphID != "":
		return idx.resolveGraph(t.GraphID)
	}
	return Resolution{}, primitives.Errorf("resolve", "", primitives.ErrRouteNotFound, "empty target")
}

func (idx *RouteIndex) resolveDestination(d *primitives.Destination, preferred string) (Resolution, error) {
	owners := idx.owners[d]
	if len(owners) == 0 {
		return Resolution{}, primitives.Errorf("resolve", d.Route, primitives.ErrRouteNotFound, "destination not declared")
	}
	if preferred == "" {
		return Resolution{Destination: d, GraphID: owners[0]}, nil
	}
	for _, owner := range owners {
		if owner == preferred {
			return Resolution{Destination: d, GraphID: owner}, nil
		}
	}
	// A preferred graph that encloses an owner is the graph navigated into.
	for _, owner := range owners {
		if idx.encloses(preferred, owner) {
			return Resolution{Destination: d, GraphID: owner, NavigatedGraphID: preferred}, nil
		}
	}
	return Resolution{Destination: d, GraphID: owners[0]}, nil
}

func (idx *RouteIndex) resolveGraph(graphID string) (Resolution, error) {
	ref, err := idx.startOf(graphID, nil)
	if err != nil {
		return Resolution{}, err
	}
	res := Resolution{Destination: ref.dest, GraphID: ref.graph}
	if ref.graph != graphID {
		res.NavigatedGraphID = graphID
	}
	return res, nil
}

func (idx *RouteIndex) resolvePath(path string) (Resolution, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return idx.Start()
	}

	if ref, ok := idx.byPath[path]; ok {
		return fromRef(ref, nil), nil
	}
	if gid, ok := idx.graphPaths[path]; ok {
		return idx.resolveGraph(gid)
	}
	if _, ok := idx.graphs[path]; ok {
		return idx.resolveGraph(path)
	}

	// Hierarchy-scoped names: "<graph path>/<route reachable in that graph>".
	segs := strings.Split(path, "/")
	for i := len(segs) - 1; i >= 1; i-- {
		prefix := strings.Join(segs[:i], "/")
		gid, ok := idx.graphPaths[prefix]
		if !ok {
			if _, isID := idx.graphs[prefix]; !isID {
				continue
			}
			gid = prefix
		}
		if ref, ok := idx.scoped[gid][strings.Join(segs[i:], "/")]; ok {
			return fromRef(ref, nil), nil
		}
	}

	if ref, ok := idx.scoped[idx.root.ID][path]; ok {
		return fromRef(ref, nil), nil
	}

	for _, ref := range idx.patterns {
		if params, ok := matchRoute(idx.fullPaths[ref], path); ok {
			return fromRef(ref, params), nil
		}
		if params, ok := matchRoute(ref.dest.Route, path); ok {
			return fromRef(ref, params), nil
		}
	}

	return Resolution{}, primitives.NewError("resolve", path, primitives.ErrRouteNotFound)
}

func fromRef(ref destRef, params primitives.Params) Resolution {
	return Resolution{Destination: ref.dest, GraphID: ref.graph, Params: params}
}

// encloses reports whether outer is inner or one of inner's ancestors.
func (idx *RouteIndex) encloses(outer, inner string) bool {
	if outer == inner || outer == idx.root.ID {
		return true
	}
	for _, id := range idx.chains[inner] {
		if id == outer {
			return true
		}
	}
	return false
}

// Locate returns the last stack index whose route (or full path) matches route, or -1.
func (idx *RouteIndex) Locate(route string, stack []primitives.Entry) int {
	route = strings.Trim(route, "/")
	for i := len(stack) - 1; i >= 0; i-- {
		e := stack[i]
		if e.Route() == route || idx.PatternPath(e) == route || idx.FullPath(e) == route {
			return i
		}
	}
	return -1
}

// PatternPath returns the declared full path of an entry, placeholders unexpanded.
func (idx *RouteIndex) PatternPath(e primitives.Entry) string {
	if full, ok := idx.fullPaths[destRef{dest: e.Destination, graph: e.GraphID}]; ok {
		return full
	}
	return e.Route()
}

// FullPath reconstructs the slash path of an entry from the ancestor chain and the
// destination route, substituting placeholders bound in the entry's params.
func (idx *RouteIndex) FullPath(e primitives.Entry) string {
	return expandRoute(idx.PatternPath(e), e.Params)
}

// Lookup finds the destination declared at an exact full path (placeholders
// unexpanded). Used when rehydrating snapshots.
func (idx *RouteIndex) Lookup(fullPath, graphID string) (Resolution, bool) {
	ref, ok := idx.byPath[strings.Trim(fullPath, "/")]
	if !ok || (graphID != "" && ref.graph != graphID) {
		return Resolution{}, false
	}
	return fromRef(ref, nil), true
}
