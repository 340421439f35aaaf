package primitives

import "encoding/json"

// Entry is a live navigation entry on the back stack.
//
// Entries compare by position (route, owning graph, stack position) rather than
// by identity; see Same.
type Entry struct {
	Destination *Destination `json:"-" yaml:"-"`
	Params      Params       `json:"params,omitempty" yaml:"params,omitempty"`
	// GraphID is the graph that owns Destination.
	GraphID string `json:"graph" yaml:"graph"`
	// NavigatedGraphID is the graph that was navigated into when it differs from
	// GraphID (a graph whose start destination lives in another graph).
	NavigatedGraphID string `json:"navigated_graph,omitempty" yaml:"navigated_graph,omitempty"`
	Position         int    `json:"position" yaml:"position"`
	ZIndex           int    `json:"z_index" yaml:"z_index"`
}

// Valid reports whether the entry references a destination.
func (e Entry) Valid() bool {
	return e.Destination != nil
}

// Route returns the destination's route, or "" for the zero entry.
func (e Entry) Route() string {
	if e.Destination == nil {
		return ""
	}
	return e.Destination.Route
}

// IsModal reports whether the entry shows a modal.
func (e Entry) IsModal() bool {
	return e.Destination.IsModal()
}

// LayoutGraph returns the graph whose layout wraps this entry.
func (e Entry) LayoutGraph() string {
	if e.NavigatedGraphID != "" {
		return e.NavigatedGraphID
	}
	return e.GraphID
}

// Same reports positional identity: same route, same owning graph, same position.
func (e Entry) Same(other Entry) bool {
	return e.Route() == other.Route() && e.GraphID == other.GraphID && e.Position == other.Position
}

// At returns a copy of the entry re-stamped at position.
func (e Entry) At(position int) Entry {
	e.Position = position
	if e.Destination != nil {
		e.ZIndex = e.Destination.ZIndex(position)
	}
	return e
}

// Restamp returns a copy of stack with positions matching slice indices.
func Restamp(stack []Entry) []Entry {
	out := make([]Entry, len(stack))
	for i, e := range stack {
		out[i] = e.At(i)
	}
	return out
}

// Top returns the last entry of stack, or the zero entry when empty.
func Top(stack []Entry) Entry {
	if len(stack) == 0 {
		return Entry{}
	}
	return stack[len(stack)-1]
}

// MarshalJSON adds the route and kind, since the destination itself is not serialized.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	var kind Kind
	if e.Destination != nil {
		kind = e.Destination.Kind
	}
	return json.Marshal(struct {
		Route string `json:"route"`
		Kind  Kind   `json:"kind,omitempty"`
		plain
	}{Route: e.Route(), Kind: kind, plain: plain(e)})
}
