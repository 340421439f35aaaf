// Package core provides the runtime tier of the navigation engine: the route
// index, the step application engine, the modal context table, the derived-state
// projector and the Navigator that publishes exactly one state per batch.
// Pluggable host integrations are declared here and implemented in
// internal/production and internal/extensibility.
//go:generate go test ./... -race

package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/comalice/navigatorx/internal/primitives"
)

// Pluggable component interfaces.

// Store is the observable state container the navigator publishes into. Writes
// must be atomic: readers observe either the previous or the next state.
type Store interface {
	Write(state NavState)
	Read() NavState
	Subscribe(buffer int) (<-chan NavState, func())
}

type Persister interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Load(ctx context.Context, sessionID string) (Snapshot, error)
}

type Visualizer interface {
	ExportDOT(root *primitives.Graph, state NavState) string
	ExportJSON(root *primitives.Graph) ([]byte, error)
}

// MetricsRecorder receives navigation counters.
type MetricsRecorder interface {
	BatchApplied(steps int, pop bool)
	BatchRejected(reason string)
	FlowStarted(route string)
	FlowCompleted(route string, took time.Duration)
}

// CompletionRunner invokes guided-flow completion handlers.
type CompletionRunner interface {
	Run(ctx context.Context, ref primitives.CompletionRef, result primitives.FlowResult) error
}

// TransitionState tells renderers whether a transition animation is in progress.
type TransitionState struct {
	Animating bool          `json:"animating"`
	Plan      AnimationPlan `json:"plan"`
}

// NavState is the value published to the store after every accepted batch.
type NavState struct {
	Version    uint64                `json:"version"`
	SessionID  string                `json:"session_id"`
	Triple     Triple                `json:"triple"`
	Derived    DerivedState          `json:"derived"`
	Flow       *primitives.FlowState `json:"flow,omitempty"`
	Transition TransitionState       `json:"transition"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// Option applies configuration to Navigator via functional options pattern.
type Option func(*Navigator)

// Navigator owns the canonical triple and publishes one state per batch.
// Thread-safe: batches are serialized, guided-flow operations additionally hold
// a flow mutex for their whole read-compute-publish sequence.
type Navigator struct {
	engine    *Engine
	projector *Projector
	store     Store

	mu     sync.Mutex // serializes read -> fold -> publish
	flowMu sync.Mutex // guards flow state transitions and overrides

	declared  map[string]primitives.FlowDefinition
	overrides map[string]primitives.FlowDefinition

	sessionID   string
	treeVersion string
	dimAlpha    float64
	timers      bool
	clock       func() time.Time
	log         zerolog.Logger

	// Pluggable components (nil = defaults/stubs)
	persister  Persister
	visualizer Visualizer
	metrics    MetricsRecorder
	runner     CompletionRunner
}

// NewNavigator builds the route index for root, validates declared flows and
// publishes the initial state (root start destination) as version 1.
func NewNavigator(root *primitives.Graph, opts ...Option) (*Navigator, error) {
	index, err := NewRouteIndex(root)
	if err != nil {
		return nil, err
	}

	n := &Navigator{
		engine:      NewEngine(index),
		declared:    make(map[string]primitives.FlowDefinition),
		overrides:   make(map[string]primitives.FlowDefinition),
		sessionID:   uuid.NewString(),
		treeVersion: primitives.ComputeVersion(&primitives.TreeFile{Root: root}),
		timers:      true,
		dimAlpha:    DefaultDimAlpha,
		clock:       time.Now,
		log:         zerolog.Nop(),
	}

	// Apply functional options
	for _, opt := range opts {
		opt(n)
	}
	if n.store == nil {
		n.store = &valueStore{}
	}
	n.projector = NewProjector(index, n.dimAlpha)

	for route, def := range n.declared {
		if err := n.checkFlow(route, def); err != nil {
			return nil, err
		}
	}

	start, err := index.Start()
	if err != nil {
		return nil, err
	}
	entry := start.Entry(nil).At(0)
	initial := Triple{Current: entry, BackStack: []primitives.Entry{entry}, Modals: primitives.ModalContexts{}}

	n.mu.Lock()
	n.publishLocked(NavState{}, initial, nil, AnimationPlan{})
	n.mu.Unlock()
	return n, nil
}

func (n *Navigator) checkFlow(route string, def primitives.FlowDefinition) error {
	if err := def.Validate(); err != nil {
		return primitives.Errorf("flow", route, primitives.ErrInvalidConfig, "%v", err)
	}
	for i, s := range def.Steps {
		if _, err := n.engine.index.Resolve(s.Target()); err != nil {
			return primitives.Errorf("flow", route, primitives.ErrInvalidConfig, "step %d: %v", i, err)
		}
	}
	return nil
}

// Index returns the read-only route index.
func (n *Navigator) Index() *RouteIndex {
	return n.engine.index
}

// SessionID identifies this navigator's session in snapshots.
func (n *Navigator) SessionID() string {
	return n.sessionID
}

// State returns the latest published state.
func (n *Navigator) State() NavState {
	return n.store.Read()
}

// Subscribe registers for published states. Call the returned func to unsubscribe.
func (n *Navigator) Subscribe(buffer int) (<-chan NavState, func()) {
	return n.store.Subscribe(buffer)
}

// Resolve resolves a target against the route index.
func (n *Navigator) Resolve(t primitives.Target) (Resolution, error) {
	return n.engine.index.Resolve(t)
}

// Locate returns the last back stack index matching route, or -1.
func (n *Navigator) Locate(route string) int {
	return n.engine.index.Locate(route, n.store.Read().Triple.BackStack)
}

// Apply folds a batch over the current state and publishes the result once.
// A rejected batch leaves the published state untouched.
func (n *Navigator) Apply(steps ...primitives.Step) (NavState, error) {
	return n.commit(steps, nil)
}

// Navigate pushes target.
func (n *Navigator) Navigate(target primitives.Target, params primitives.Params) (NavState, error) {
	return n.Apply(primitives.Step{Op: primitives.OpNavigate, Target: target, Params: params})
}

// Replace substitutes the current entry with target.
func (n *Navigator) Replace(target primitives.Target, params primitives.Params) (NavState, error) {
	return n.Apply(primitives.Step{Op: primitives.OpReplace, Target: target, Params: params})
}

// Back pops the current entry; a single-entry stack is left as is.
func (n *Navigator) Back() (NavState, error) {
	return n.Apply(primitives.Step{Op: primitives.OpBack})
}

// PopUpTo truncates the stack up to (or through, when inclusive) target.
func (n *Navigator) PopUpTo(target primitives.Target, inclusive bool) (NavState, error) {
	return n.Apply(primitives.Step{Op: primitives.OpPopUpTo, PopTo: target, Inclusive: inclusive})
}

// ClearAndNavigate replaces the whole stack with target.
func (n *Navigator) ClearAndNavigate(target primitives.Target, params primitives.Params) (NavState, error) {
	return n.Apply(primitives.Step{Op: primitives.OpClearBackStack, Target: target, Params: params})
}

// flowUpdate computes the next flow state from the previous one.
type flowUpdate func(prev *primitives.FlowState) *primitives.FlowState

// commit is the single publish path: fold steps (if any), apply the flow update
// and write one combined state.
func (n *Navigator) commit(steps []primitives.Step, update flowUpdate) (NavState, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	prev := n.store.Read()
	next := prev.Triple
	if len(steps) > 0 {
		var err error
		next, err = n.engine.Apply(steps, prev.Triple)
		if err != nil {
			n.rejected(err, len(steps))
			return prev, err
		}
	}

	flow := prev.Flow
	if update != nil {
		flow = update(prev.Flow)
	}
	return n.publishStepsLocked(prev, next, flow, steps), nil
}

// ApplyEach folds each batch in turn over the state left by the batches before
// it, the same as calling Apply once per batch, but publishes a single update.
// A rejected batch is skipped and its error reported at the same index of errs;
// the others still apply. Nothing is published when every batch is rejected.
func (n *Navigator) ApplyEach(batches ...[]primitives.Step) (state NavState, errs []error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	prev := n.store.Read()
	next := prev.Triple
	errs = make([]error, len(batches))
	var accepted []primitives.Step
	for i, steps := range batches {
		out, err := n.engine.Apply(steps, next)
		if err != nil {
			n.rejected(err, len(steps))
			errs[i] = err
			continue
		}
		next = out
		accepted = append(accepted, steps...)
	}
	if len(accepted) == 0 {
		return prev, errs
	}
	return n.publishStepsLocked(prev, next, prev.Flow, accepted), errs
}

func (n *Navigator) rejected(err error, steps int) {
	if n.metrics != nil {
		n.metrics.BatchRejected(rejectReason(err))
	}
	n.log.Warn().Err(err).Int("steps", steps).Msg("navigation batch rejected")
}

// publishStepsLocked publishes the outcome of steps with its transition plan.
// Caller holds n.mu.
func (n *Navigator) publishStepsLocked(prev NavState, next Triple, flow *primitives.FlowState, steps []primitives.Step) NavState {
	pop := IsPopBatch(steps)
	plan := PlanTransition(prev.Triple.Current, next.Current, pop)
	state := n.publishLocked(prev, next, flow, plan)

	if n.metrics != nil && len(steps) > 0 {
		n.metrics.BatchApplied(len(steps), pop)
	}
	n.log.Debug().
		Uint64("version", state.Version).
		Str("route", state.Derived.FullPath).
		Int("depth", state.Derived.Depth).
		Bool("animate", plan.Animate).
		Msg("navigation state published")
	return state
}

// publishLocked projects and writes a state. Caller holds n.mu.
func (n *Navigator) publishLocked(prev NavState, t Triple, flow *primitives.FlowState, plan AnimationPlan) NavState {
	state := NavState{
		Version:    prev.Version + 1,
		SessionID:  n.sessionID,
		Triple:     t,
		Derived:    n.projector.Project(t),
		Flow:       flow,
		Transition: TransitionState{Animating: plan.Animate, Plan: plan},
		UpdatedAt:  n.clock(),
	}
	n.store.Write(state)

	if plan.Animate && n.timers {
		version := state.Version
		time.AfterFunc(plan.Duration, func() { n.resetTransition(version) })
	}
	if n.persister != nil {
		snapshot := n.snapshotOf(state)
		go func() {
			if err := n.persister.Save(context.Background(), snapshot); err != nil {
				n.log.Error().Err(err).Str("session", snapshot.SessionID).Msg("persist navigation snapshot")
			}
		}()
	}
	return state
}

// resetTransition clears the animating flag unless a newer state superseded it.
func (n *Navigator) resetTransition(version uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	cur := n.store.Read()
	if cur.Version != version || !cur.Transition.Animating {
		return
	}
	cur.Version++
	cur.Transition = TransitionState{Plan: cur.Transition.Plan}
	cur.UpdatedAt = n.clock()
	n.store.Write(cur)
}

func rejectReason(err error) string {
	switch {
	case primitives.IsRouteNotFound(err):
		return "route_not_found"
	case primitives.IsInvalidOperation(err):
		return "invalid_operation"
	}
	return "other"
}

// Visualize returns the Graphviz DOT visualization of the tree and current stack.
func (n *Navigator) Visualize() string {
	if n.visualizer == nil {
		return "ERROR: No visualizer configured. Use WithVisualizer(&production.DefaultVisualizer{})"
	}
	return n.visualizer.ExportDOT(n.engine.index.Root(), n.store.Read())
}

// valueStore is the fallback store when none is configured: latest value only,
// no subscriptions.
type valueStore struct {
	mu    sync.RWMutex
	state NavState
}

func (s *valueStore) Write(state NavState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *valueStore) Read() NavState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *valueStore) Subscribe(int) (<-chan NavState, func()) {
	ch := make(chan NavState)
	return ch, func() {}
}
