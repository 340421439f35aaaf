package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// StartRef points at a graph's start destination: either a route declared in the
// graph itself or another graph whose start destination is used transitively.
type StartRef struct {
	Route string `json:"route,omitempty" yaml:"route,omitempty" toml:"route"`
	Graph string `json:"graph,omitempty" yaml:"graph,omitempty" toml:"graph"`
}

// IsZero reports whether no start destination was declared.
func (s StartRef) IsZero() bool {
	return s.Route == "" && s.Graph == ""
}

// Graph is a named grouping of destinations and nested graphs, supporting
// hierarchical nesting. Graphs are declared once and never mutated afterwards.
type Graph struct {
	ID           string         `json:"id" yaml:"id" toml:"id"`
	Start        StartRef       `json:"start" yaml:"start" toml:"start"`
	Layout       string         `json:"layout,omitempty" yaml:"layout,omitempty" toml:"layout"`
	Destinations []*Destination `json:"destinations,omitempty" yaml:"destinations,omitempty" toml:"destinations"`
	Graphs       []*Graph       `json:"graphs,omitempty" yaml:"graphs,omitempty" toml:"graphs"`
}

// NewGraph creates an empty graph with the given id.
func NewGraph(id string) *Graph {
	return &Graph{ID: id}
}

// WithStart sets the start destination to a route declared in this graph.
func (g *Graph) WithStart(route string) *Graph {
	g.Start = StartRef{Route: route}
	return g
}

// WithStartGraph makes this graph start wherever graph id starts.
func (g *Graph) WithStartGraph(id string) *Graph {
	g.Start = StartRef{Graph: id}
	return g
}

// WithLayout sets the opaque layout wrapper name used by renderers.
func (g *Graph) WithLayout(layout string) *Graph {
	g.Layout = layout
	return g
}

// AddDestination appends a destination.
func (g *Graph) AddDestination(d *Destination) *Graph {
	g.Destinations = append(g.Destinations, d)
	return g
}

// AddGraph appends a nested graph.
func (g *Graph) AddGraph(child *Graph) *Graph {
	g.Graphs = append(g.Graphs, child)
	return g
}

// Screen creates and adds a screen, returning it for further configuration.
func (g *Graph) Screen(route string) *Destination {
	d := NewScreen(route)
	g.AddDestination(d)
	return d
}

// Modal creates and adds a modal, returning it for further configuration.
func (g *Graph) Modal(route string) *Destination {
	d := NewModal(route)
	g.AddDestination(d)
	return d
}

// Graph creates and adds a nested graph, returning the child for chaining.
func (g *Graph) Graph(id string) *Graph {
	child := NewGraph(id)
	g.AddGraph(child)
	return child
}

// Destination returns the destination declared directly in this graph with route.
func (g *Graph) Destination(route string) *Destination {
	for _, d := range g.Destinations {
		if d.Route == route {
			return d
		}
	}
	return nil
}

// Walk visits the graph and all nested graphs depth-first in declaration order.
// parents holds the chain of enclosing graphs, outermost first.
func (g *Graph) Walk(fn func(graph *Graph, parents []*Graph) error) error {
	return g.walk(nil, fn)
}

func (g *Graph) walk(parents []*Graph, fn func(*Graph, []*Graph) error) error {
	if err := fn(g, parents); err != nil {
		return err
	}
	chain := append(append(make([]*Graph, 0, len(parents)+1), parents...), g)
	for _, child := range g.Graphs {
		if child == nil {
			continue
		}
		if err := child.walk(chain, fn); err != nil {
			return err
		}
	}
	return nil
}

// Validate performs recursive validation of the graph tree. It checks local
// well-formedness only; cross-graph start references are checked by the route index.
func (g *Graph) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return errors.New("graph ID is required")
	}
	if strings.Contains(g.ID, "/") {
		return fmt.Errorf("graph %q: ID must not contain '/'", g.ID)
	}
	if g.Start.IsZero() {
		return fmt.Errorf("graph %s requires a start destination", g.ID)
	}
	if g.Start.Route != "" && g.Start.Graph != "" {
		return fmt.Errorf("graph %s: start must name a route or a graph, not both", g.ID)
	}
	if g.Start.Route != "" && g.Destination(g.Start.Route) == nil {
		return fmt.Errorf("start destination %q not found in graph %s", g.Start.Route, g.ID)
	}

	seen := make(map[string]struct{}, len(g.Destinations))
	for i, d := range g.Destinations {
		if d == nil {
			return fmt.Errorf("graph %s: destination %d is nil", g.ID, i)
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("graph %s: %w", g.ID, err)
		}
		if _, dup := seen[d.Route]; dup {
			return fmt.Errorf("graph %s: duplicate route %q", g.ID, d.Route)
		}
		seen[d.Route] = struct{}{}
	}

	for i, child := range g.Graphs {
		if child == nil {
			return fmt.Errorf("graph %s: nested graph %d is nil", g.ID, i)
		}
		if err := child.Validate(); err != nil {
			return fmt.Errorf("nested graph %d (%s) of %s failed validation: %w", i, child.ID, g.ID, err)
		}
	}

	return nil
}
