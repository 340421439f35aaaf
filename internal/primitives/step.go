package primitives

import "fmt"

// Op is the kind of a navigation step.
type Op string

const (
	OpNavigate       Op = "navigate"
	OpReplace        Op = "replace"
	OpBack           Op = "back"
	OpPopUpTo        Op = "pop_up_to"
	OpClearBackStack Op = "clear_back_stack"
)

// Target identifies a destination: a slash-separated path, a direct destination
// reference (optionally with a preferred graph), or a graph to navigate into.
type Target struct {
	Path        string       `json:"path,omitempty" yaml:"path,omitempty"`
	Destination *Destination `json:"-" yaml:"-"`
	GraphID     string       `json:"graph,omitempty" yaml:"graph,omitempty"`
}

// PathTarget targets a slash-separated path.
func PathTarget(path string) Target {
	return Target{Path: path}
}

// DestinationTarget targets a declared destination, preferring graphID when the
// destination is declared in more than one graph.
func DestinationTarget(d *Destination, graphID string) Target {
	return Target{Destination: d, GraphID: graphID}
}

// GraphTarget targets a graph's start destination.
func GraphTarget(graphID string) Target {
	return Target{GraphID: graphID}
}

// IsZero reports whether no target was given.
func (t Target) IsZero() bool {
	return t.Path == "" && t.Destination == nil && t.GraphID == ""
}

func (t Target) String() string {
	switch {
	case t.Path != "":
		return t.Path
	case t.Destination != nil && t.GraphID != "":
		return t.GraphID + ":" + t.Destination.Route
	case t.Destination != nil:
		return t.Destination.Route
	case t.GraphID != "":
		return "graph:" + t.GraphID
	}
	return "<none>"
}

// Step is one operation of a navigation batch.
type Step struct {
	Op            Op     `json:"op" yaml:"op"`
	Target        Target `json:"target,omitempty" yaml:"target,omitempty"`
	PopTo         Target `json:"pop_to,omitempty" yaml:"pop_to,omitempty"`
	Inclusive     bool   `json:"inclusive,omitempty" yaml:"inclusive,omitempty"`
	DismissModals bool   `json:"dismiss_modals,omitempty" yaml:"dismiss_modals,omitempty"`
	Params        Params `json:"params,omitempty" yaml:"params,omitempty"`
	// Flow tags steps issued on behalf of a guided flow.
	Flow string `json:"flow,omitempty" yaml:"flow,omitempty"`
}

// Populates reports whether the step pushes a new entry onto the stack.
func (s Step) Populates() bool {
	switch s.Op {
	case OpNavigate, OpReplace:
		return true
	case OpPopUpTo, OpClearBackStack:
		return !s.Target.IsZero()
	}
	return false
}

// Validate checks the shape of a single step.
func (s Step) Validate() error {
	switch s.Op {
	case OpNavigate, OpReplace:
		if s.Target.IsZero() {
			return fmt.Errorf("%s step requires a target", s.Op)
		}
	case OpBack:
		if !s.Target.IsZero() || !s.PopTo.IsZero() {
			return fmt.Errorf("back step takes no target")
		}
	case OpPopUpTo:
		if s.PopTo.IsZero() {
			return fmt.Errorf("pop_up_to step requires a pop-to target")
		}
	case OpClearBackStack:
		if !s.PopTo.IsZero() {
			return fmt.Errorf("clear_back_stack step takes no pop-to target")
		}
	default:
		return fmt.Errorf("unknown step op %q", s.Op)
	}
	return nil
}
