package primitives

import (
	"errors"
	"fmt"
)

// TreeFile is the top-level declaration: the root graph plus declared guided flows.
type TreeFile struct {
	Version string                    `json:"version,omitempty" yaml:"version,omitempty" toml:"version"`
	Root    *Graph                    `json:"root" yaml:"root" toml:"root"`
	Flows   map[string]FlowDefinition `json:"flows,omitempty" yaml:"flows,omitempty" toml:"flows"`
}

// Validate validates the whole declaration:
// - A root graph is present and validates recursively
// - Graph IDs are unique across the tree
// - Every declared flow validates
func (t *TreeFile) Validate() error {
	if t.Root == nil {
		return errors.New("root graph is required")
	}
	if err := t.Root.Validate(); err != nil {
		return err
	}
	if _, err := t.Root.Index(); err != nil {
		return err
	}
	for route, def := range t.Flows {
		if route == "" {
			return errors.New("flow route is required")
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("flow %q: %w", route, err)
		}
	}
	return nil
}

// Index returns every graph in the tree keyed by id, failing on duplicates.
func (g *Graph) Index() (map[string]*Graph, error) {
	graphs := make(map[string]*Graph)
	err := g.Walk(func(graph *Graph, _ []*Graph) error {
		if _, dup := graphs[graph.ID]; dup {
			return fmt.Errorf("%w: duplicate graph id %q", ErrInvalidConfig, graph.ID)
		}
		graphs[graph.ID] = graph
		return nil
	})
	if err != nil {
		return nil, err
	}
	return graphs, nil
}

// FindGraph returns the graph with id anywhere in the tree.
func (g *Graph) FindGraph(id string) (*Graph, error) {
	var found *Graph
	_ = g.Walk(func(graph *Graph, _ []*Graph) error {
		if found == nil && graph.ID == id {
			found = graph
		}
		return nil
	})
	if found == nil {
		return nil, fmt.Errorf("graph %q not found", id)
	}
	return found, nil
}
