package navigatorx

import (
	"errors"
	"fmt"

	"github.com/comalice/navigatorx/internal/core"
	"github.com/comalice/navigatorx/internal/primitives"
)

// DestinationOption configures a destination declared through a GraphBuilder.
type DestinationOption func(*Destination)

// WithTitle sets the human readable title used for breadcrumbs.
func WithTitle(title string) DestinationOption {
	return func(d *Destination) { d.WithTitle(title) }
}

// WithElevation sets the ordering among overlays on the same layer.
func WithElevation(elevation int) DestinationOption {
	return func(d *Destination) { d.WithElevation(elevation) }
}

// WithLayer sets the render layer.
func WithLayer(layer Layer) DestinationOption {
	return func(d *Destination) { d.WithLayer(layer) }
}

// WithDim dims the content beneath a modal.
func WithDim() DestinationOption {
	return func(d *Destination) { d.WithDim() }
}

// WithTransitions sets the enter and exit animations.
func WithTransitions(enter, exit Transition) DestinationOption {
	return func(d *Destination) { d.WithTransitions(enter, exit) }
}

// WithPopTransitions overrides the animations used when popping.
func WithPopTransitions(enter, exit Transition) DestinationOption {
	return func(d *Destination) { d.WithPopTransitions(enter, exit) }
}

// GraphBuilder provides a fluent API for declaring a navigation tree.
//
//	root, err := navigatorx.NewGraph("root").StartAt("home").
//		Screen("home", navigatorx.WithTitle("Home")).
//		Modal("confirm", navigatorx.WithDim()).
//		Graph("account").StartAt("overview").
//			Screen("overview").
//			Screen("user/{id}/profile").
//		End().
//		Build()
type GraphBuilder struct {
	graph  *Graph
	parent *GraphBuilder
	errs   *[]error
}

// NewGraph starts a tree whose root graph has the given id.
func NewGraph(id string) *GraphBuilder {
	return &GraphBuilder{graph: primitives.NewGraph(id), errs: new([]error)}
}

func (b *GraphBuilder) fail(format string, args ...any) {
	*b.errs = append(*b.errs, fmt.Errorf(format, args...))
}

// Screen declares a screen in the current graph.
func (b *GraphBuilder) Screen(route string, opts ...DestinationOption) *GraphBuilder {
	return b.add(primitives.NewScreen(route), opts)
}

// Modal declares a modal in the current graph.
func (b *GraphBuilder) Modal(route string, opts ...DestinationOption) *GraphBuilder {
	return b.add(primitives.NewModal(route), opts)
}

func (b *GraphBuilder) add(d *Destination, opts []DestinationOption) *GraphBuilder {
	if b.graph.Destination(d.Route) != nil {
		b.fail("graph %s: route %q declared twice", b.graph.ID, d.Route)
		return b
	}
	for _, opt := range opts {
		opt(d)
	}
	b.graph.AddDestination(d)
	return b
}

// Graph declares a nested graph and returns its builder. Call End to return
// to the enclosing graph.
func (b *GraphBuilder) Graph(id string) *GraphBuilder {
	child := primitives.NewGraph(id)
	b.graph.AddGraph(child)
	return &GraphBuilder{graph: child, parent: b, errs: b.errs}
}

// End returns the enclosing graph's builder. On the root it returns b.
func (b *GraphBuilder) End() *GraphBuilder {
	if b.parent == nil {
		return b
	}
	return b.parent
}

// StartAt sets the start destination to a route of this graph.
func (b *GraphBuilder) StartAt(route string) *GraphBuilder {
	b.graph.WithStart(route)
	return b
}

// StartAtGraph makes this graph start wherever graph id starts.
func (b *GraphBuilder) StartAtGraph(id string) *GraphBuilder {
	b.graph.WithStartGraph(id)
	return b
}

// Layout names the layout wrapper renderers use for this graph.
func (b *GraphBuilder) Layout(name string) *GraphBuilder {
	b.graph.WithLayout(name)
	return b
}

// Build validates the whole tree, from any builder in it, and returns its root.
// Start references are resolved, so cyclic graph starts fail here.
func (b *GraphBuilder) Build() (*Graph, error) {
	root := b
	for root.parent != nil {
		root = root.parent
	}
	if len(*b.errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(*b.errs...))
	}
	if _, err := core.NewRouteIndex(root.graph); err != nil {
		return nil, err
	}
	return root.graph, nil
}

// MustBuild is Build for static declarations; it panics on error.
func (b *GraphBuilder) MustBuild() *Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}

// FlowBuilder assembles a guided flow definition.
type FlowBuilder struct {
	def FlowDefinition
}

// NewFlow starts a flow visiting routes in order.
func NewFlow(routes ...string) *FlowBuilder {
	f := &FlowBuilder{}
	for _, r := range routes {
		f.def.Steps = append(f.def.Steps, primitives.RouteStep(r, nil))
	}
	return f
}

// Step appends a step with default params.
func (f *FlowBuilder) Step(route string, params Params) *FlowBuilder {
	f.def.Steps = append(f.def.Steps, primitives.RouteStep(route, params))
	return f
}

// StepTo appends a typed destination step.
func (f *FlowBuilder) StepTo(d *Destination, params Params) *FlowBuilder {
	f.def.Steps = append(f.def.Steps, primitives.DestinationStep(d, params))
	return f
}

// OnComplete sets the completion handler reference.
func (f *FlowBuilder) OnComplete(ref CompletionRef) *FlowBuilder {
	f.def.OnComplete = ref
	return f
}

// ClearPolicy sets what happens to runtime modifications on completion.
func (f *FlowBuilder) ClearPolicy(p ClearPolicy) *FlowBuilder {
	f.def.ClearPolicy = p
	return f
}

// Definition returns a copy of the assembled definition.
func (f *FlowBuilder) Definition() FlowDefinition {
	return f.def.Clone()
}
