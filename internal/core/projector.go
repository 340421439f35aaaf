// Derived-state projector: recomputes every cached field from the canonical triple.
// Deterministic and free of hidden state.

package core

import (
	"sort"
	"strings"

	"github.com/comalice/navigatorx/internal/primitives"
)

// DefaultDimAlpha is the alpha applied to a screen dimmed beneath a modal.
const DefaultDimAlpha = 0.5

// VisibleLayer is one entry the renderer must paint, bottom to top.
type VisibleLayer struct {
	Entry  primitives.Entry `json:"entry"`
	Route  string           `json:"route"`
	Layer  primitives.Layer `json:"layer"`
	Dimmed bool             `json:"dimmed,omitempty"`
	Alpha  float64          `json:"alpha"`
}

// Breadcrumb is one segment of the current full path.
type Breadcrumb struct {
	Segment string `json:"segment"`
	Path    string `json:"path"`
	IsGraph bool   `json:"is_graph"`
	Label   string `json:"label"`
}

// DerivedState is the read-only view handed to renderers.
type DerivedState struct {
	Current          primitives.Entry   `json:"current"`
	BackStack        []primitives.Entry `json:"back_stack"`
	Underlying       primitives.Entry   `json:"underlying,omitzero"`
	VisibleLayers    []VisibleLayer     `json:"visible_layers"`
	FullPath         string             `json:"full_path"`
	PathSegments     []string           `json:"path_segments"`
	GraphHierarchy   []string           `json:"graph_hierarchy"`
	Breadcrumbs      []Breadcrumb       `json:"breadcrumbs"`
	Layout           string             `json:"layout,omitempty"`
	CanGoBack        bool               `json:"can_go_back"`
	IsModal          bool               `json:"is_modal"`
	HasModalsInStack bool               `json:"has_modals_in_stack"`
	Depth            int                `json:"depth"`
	ScreenDepth      int                `json:"screen_depth"`
	ModalDepth       int                `json:"modal_depth"`
}

// Projector computes derived state against a route index.
type Projector struct {
	index    *RouteIndex
	dimAlpha float64
}

// NewProjector creates a projector. A dimAlpha outside [0, 1] selects
// DefaultDimAlpha; 0 dims to fully transparent.
func NewProjector(index *RouteIndex, dimAlpha float64) *Projector {
	if dimAlpha < 0 || dimAlpha > 1 {
		dimAlpha = DefaultDimAlpha
	}
	return &Projector{index: index, dimAlpha: dimAlpha}
}

// Project derives the renderer view from a triple.
func (p *Projector) Project(t Triple) DerivedState {
	stack := primitives.Restamp(t.BackStack)
	current := primitives.Top(stack)

	d := DerivedState{
		Current:   current,
		BackStack: stack,
		Depth:     len(stack),
		CanGoBack: len(stack) > 1,
		IsModal:   current.IsModal(),
	}
	for _, e := range stack {
		if e.IsModal() {
			d.ModalDepth++
		} else {
			d.ScreenDepth++
		}
	}
	d.HasModalsInStack = d.ModalDepth > 0
	if !current.Valid() {
		return d
	}

	d.VisibleLayers = p.visibleLayers(t.Modals, current, stack, &d.Underlying)
	d.FullPath = p.index.FullPath(current)
	d.PathSegments = splitPath(d.FullPath)
	d.GraphHierarchy = p.index.Ancestors(current.GraphID)
	d.Breadcrumbs = breadcrumbs(current, d.PathSegments, d.GraphHierarchy)
	if g, ok := p.index.Graph(current.LayoutGraph()); ok {
		d.Layout = g.Layout
	}
	return d
}

func (p *Projector) visibleLayers(modals primitives.ModalContexts, current primitives.Entry, stack []primitives.Entry, underlying *primitives.Entry) []VisibleLayer {
	top := layerOf(current, 1)
	if !current.IsModal() {
		return []VisibleLayer{top}
	}

	layers := []VisibleLayer{top}
	if under := underlyingScreen(modals, current, stack); under.Valid() {
		*underlying = under
		bottom := layerOf(under, 1)
		if current.Destination.DimBackground {
			bottom.Dimmed = true
			bottom.Alpha = p.dimAlpha
		}
		layers = append(layers, bottom)
	}
	sort.SliceStable(layers, func(i, j int) bool {
		a, b := layers[i].Entry, layers[j].Entry
		if a.Destination.Elevation != b.Destination.Elevation {
			return a.Destination.Elevation < b.Destination.Elevation
		}
		return a.ZIndex < b.ZIndex
	})
	return layers
}

func layerOf(e primitives.Entry, alpha float64) VisibleLayer {
	return VisibleLayer{Entry: e, Route: e.Route(), Layer: e.Destination.RenderLayer(), Alpha: alpha}
}

func breadcrumbs(current primitives.Entry, segments, chain []string) []Breadcrumb {
	crumbs := make([]Breadcrumb, len(segments))
	for i, seg := range segments {
		crumb := Breadcrumb{
			Segment: seg,
			Path:    strings.Join(segments[:i+1], "/"),
			IsGraph: i < len(chain),
			Label:   seg,
		}
		if i == len(segments)-1 && current.Destination.Title != "" {
			crumb.Label = current.Destination.Title
		}
		crumbs[i] = crumb
	}
	return crumbs
}
