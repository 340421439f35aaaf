// Package navigatorx is a client-side navigation state engine.
//
// A declaration tree of graphs, screens and modals is indexed once; navigation
// batches are then folded over a canonical back stack and published as one
// immutable state per batch, together with a derived view for renderers and
// an optional guided flow.
package navigatorx

import (
	"github.com/comalice/navigatorx/internal/core"
	"github.com/comalice/navigatorx/internal/primitives"
)

type (
	Navigator        = core.Navigator
	NavState         = core.NavState
	DerivedState     = core.DerivedState
	VisibleLayer     = core.VisibleLayer
	Breadcrumb       = core.Breadcrumb
	Triple           = core.Triple
	Snapshot         = core.Snapshot
	Option           = core.Option
	Store            = core.Store
	Persister        = core.Persister
	Visualizer       = core.Visualizer
	MetricsRecorder  = core.MetricsRecorder
	CompletionRunner = core.CompletionRunner

	FlowModification  = core.FlowModification
	AddSteps          = core.AddSteps
	RemoveSteps       = core.RemoveSteps
	ReplaceStep       = core.ReplaceStep
	UpdateStepParams  = core.UpdateStepParams
	ReplaceCompletion = core.ReplaceCompletion

	Graph          = primitives.Graph
	Destination    = primitives.Destination
	Transition     = primitives.Transition
	Layer          = primitives.Layer
	Entry          = primitives.Entry
	Params         = primitives.Params
	Step           = primitives.Step
	Op             = primitives.Op
	Target         = primitives.Target
	TreeFile       = primitives.TreeFile
	FlowDefinition = primitives.FlowDefinition
	FlowStep       = primitives.FlowStep
	FlowState      = primitives.FlowState
	FlowResult     = primitives.FlowResult
	ClearPolicy    = primitives.ClearPolicy
	CompletionRef  = primitives.CompletionRef
)

const (
	LayerContent       = primitives.LayerContent
	LayerGlobalOverlay = primitives.LayerGlobalOverlay
	LayerSystem        = primitives.LayerSystem

	ClearNone = primitives.ClearNone
	ClearAll  = primitives.ClearAll
	ClearOwn  = primitives.ClearOwn

	OpNavigate       = primitives.OpNavigate
	OpReplace        = primitives.OpReplace
	OpBack           = primitives.OpBack
	OpPopUpTo        = primitives.OpPopUpTo
	OpClearBackStack = primitives.OpClearBackStack
)

var (
	ErrRouteNotFound    = primitives.ErrRouteNotFound
	ErrInvalidOperation = primitives.ErrInvalidOperation
	ErrNoActiveFlow     = primitives.ErrNoActiveFlow
	ErrFlowNotFound     = primitives.ErrFlowNotFound
	ErrInvalidConfig    = primitives.ErrInvalidConfig
)

var (
	WithStore            = core.WithStore
	WithLogger           = core.WithLogger
	WithPersister        = core.WithPersister
	WithVisualizer       = core.WithVisualizer
	WithMetrics          = core.WithMetrics
	WithCompletionRunner = core.WithCompletionRunner
	WithFlows            = core.WithFlows
	WithFlow             = core.WithFlow
	WithClock            = core.WithClock
	WithTransitionTimers = core.WithTransitionTimers
	WithDimAlpha         = core.WithDimAlpha
	WithSessionID        = core.WithSessionID
	WithTreeVersion      = core.WithTreeVersion
)

// New indexes root and publishes its start destination as version 1.
func New(root *Graph, opts ...Option) (*Navigator, error) {
	return core.NewNavigator(root, opts...)
}

// NewFromTree is New for a loaded declaration file: its flows are declared and
// its content version is stamped into snapshots. Options given here win.
func NewFromTree(tree *TreeFile, opts ...Option) (*Navigator, error) {
	if tree == nil || tree.Root == nil {
		return nil, primitives.NewError("new", "", ErrInvalidConfig)
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	base := []Option{
		core.WithFlows(tree.Flows),
		core.WithTreeVersion(primitives.ComputeVersion(tree)),
	}
	return core.NewNavigator(tree.Root, append(base, opts...)...)
}

// Path targets a slash-separated path.
func Path(path string) Target {
	return primitives.PathTarget(path)
}

// To targets a declared destination, preferring graphID when it is declared
// in more than one graph.
func To(d *Destination, graphID string) Target {
	return primitives.DestinationTarget(d, graphID)
}

// GraphStart targets a graph's start destination.
func GraphStart(graphID string) Target {
	return primitives.GraphTarget(graphID)
}

// RouteStep is a flow step naming a route or path.
func RouteStep(route string, params Params) FlowStep {
	return primitives.RouteStep(route, params)
}
