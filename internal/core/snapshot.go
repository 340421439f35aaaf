package core

import (
	"context"
	"sort"
	"time"

	"github.com/comalice/navigatorx/internal/primitives"
)

// EntrySnapshot is the serializable form of an entry: destinations are stored by
// declared path and owning graph and rehydrated through the route index.
type EntrySnapshot struct {
	Path             string            `json:"path" yaml:"path"`
	GraphID          string            `json:"graph" yaml:"graph"`
	NavigatedGraphID string            `json:"navigated_graph,omitempty" yaml:"navigated_graph,omitempty"`
	Params           primitives.Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// ModalSnapshot is the serializable form of a modal context.
type ModalSnapshot struct {
	Route              string `json:"route" yaml:"route"`
	UnderlyingPosition int    `json:"underlying_position" yaml:"underlying_position"`
	NavigatedAwayTo    string `json:"navigated_away_to,omitempty" yaml:"navigated_away_to,omitempty"`
	CreatedFrom        string `json:"created_from,omitempty" yaml:"created_from,omitempty"`
}

// Snapshot captures the canonical navigation state for host persistence.
type Snapshot struct {
	SessionID   string                `json:"session_id" yaml:"session_id"`
	TreeVersion string                `json:"tree_version" yaml:"tree_version"`
	Version     uint64                `json:"version" yaml:"version"`
	BackStack   []EntrySnapshot       `json:"back_stack" yaml:"back_stack"`
	Modals      []ModalSnapshot       `json:"modals,omitempty" yaml:"modals,omitempty"`
	Flow        *primitives.FlowState `json:"flow,omitempty" yaml:"flow,omitempty"`
	Timestamp   time.Time             `json:"timestamp" yaml:"timestamp"`
}

// Snapshot returns the serializable form of the latest published state.
func (n *Navigator) Snapshot() Snapshot {
	return n.snapshotOf(n.store.Read())
}

func (n *Navigator) snapshotOf(state NavState) Snapshot {
	snap := Snapshot{
		SessionID:   n.sessionID,
		TreeVersion: n.treeVersion,
		Version:     state.Version,
		BackStack:   make([]EntrySnapshot, len(state.Triple.BackStack)),
		Timestamp:   state.UpdatedAt,
	}
	if state.Flow != nil {
		flow := *state.Flow
		snap.Flow = &flow
	}
	for i, e := range state.Triple.BackStack {
		snap.BackStack[i] = EntrySnapshot{
			Path:             n.engine.index.PatternPath(e),
			GraphID:          e.GraphID,
			NavigatedGraphID: e.NavigatedGraphID,
			Params:           e.Params.Clone(),
		}
	}
	for _, route := range sortedKeys(state.Triple.Modals) {
		ctx := state.Triple.Modals[route]
		pos := -1
		if ctx.Underlying.Valid() {
			pos = ctx.Underlying.Position
		}
		snap.Modals = append(snap.Modals, ModalSnapshot{
			Route:              route,
			UnderlyingPosition: pos,
			NavigatedAwayTo:    ctx.NavigatedAwayTo,
			CreatedFrom:        ctx.CreatedFrom,
		})
	}
	return snap
}

// Restore replaces the navigation state with a snapshot in one published
// update. Versions continue from the snapshot's version when it is ahead. Entries that no longer resolve fail the restore with ErrRouteNotFound
// and leave the state untouched.
func (n *Navigator) Restore(snap Snapshot) (NavState, error) {
	t, err := n.rehydrate(snap)
	if err != nil {
		return n.store.Read(), err
	}

	n.flowMu.Lock()
	defer n.flowMu.Unlock()
	n.mu.Lock()
	defer n.mu.Unlock()

	var flow *primitives.FlowState
	if snap.Flow != nil {
		if _, ok := n.effectiveLocked(snap.Flow.Route); ok {
			f := *snap.Flow
			flow = &f
		} else {
			n.log.Warn().Str("flow", snap.Flow.Route).Msg("restored flow is not declared, dropped")
		}
	}
	prev := n.store.Read()
	if snap.Version > prev.Version {
		prev.Version = snap.Version
	}
	state := n.publishLocked(prev, t, flow, AnimationPlan{})
	n.log.Info().Str("session", snap.SessionID).Uint64("from_version", snap.Version).Msg("navigation state restored")
	return state, nil
}

// Load fetches a snapshot from the configured persister and restores it.
func (n *Navigator) Load(ctx context.Context, sessionID string) (NavState, error) {
	if n.persister == nil {
		return n.store.Read(), primitives.Errorf("load", sessionID, primitives.ErrInvalidOperation, "no persister configured")
	}
	snap, err := n.persister.Load(ctx, sessionID)
	if err != nil {
		return n.store.Read(), err
	}
	return n.Restore(snap)
}

func (n *Navigator) rehydrate(snap Snapshot) (Triple, error) {
	if len(snap.BackStack) == 0 {
		return Triple{}, primitives.Errorf("restore", "", primitives.ErrInvalidOperation, "snapshot has an empty back stack")
	}
	if snap.TreeVersion != "" && snap.TreeVersion != n.treeVersion {
		n.log.Warn().Str("snapshot", snap.TreeVersion).Str("tree", n.treeVersion).Msg("restoring snapshot from a different tree version")
	}

	stack := make([]primitives.Entry, len(snap.BackStack))
	for i, es := range snap.BackStack {
		res, ok := n.engine.index.Lookup(es.Path, es.GraphID)
		if !ok {
			return Triple{}, primitives.NewError("restore", es.Path, primitives.ErrRouteNotFound)
		}
		res.NavigatedGraphID = es.NavigatedGraphID
		stack[i] = res.Entry(es.Params).At(i)
	}

	modals := make(primitives.ModalContexts, len(snap.Modals))
	for _, ms := range snap.Modals {
		at := n.engine.index.Locate(ms.Route, stack)
		if at < 0 || !stack[at].IsModal() {
			continue
		}
		ctx := primitives.ModalContext{
			Modal:           stack[at],
			NavigatedAwayTo: ms.NavigatedAwayTo,
			CreatedFrom:     ms.CreatedFrom,
		}
		if p := ms.UnderlyingPosition; p >= 0 && p < len(stack) {
			ctx.Underlying = stack[p]
		} else {
			ctx.Underlying = lastScreen(stack, at)
		}
		modals[ms.Route] = ctx
	}

	return Triple{Current: primitives.Top(stack), BackStack: stack, Modals: modals}, nil
}

func sortedKeys(m primitives.ModalContexts) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
