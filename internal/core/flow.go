// Guided flow state machine: NoActiveFlow -> Active(route, index) -> Completed,
// where Completed collapses back to NoActiveFlow in the same published update.
// Every operation holds flowMu across read, compute and publish.

package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/comalice/navigatorx/internal/primitives"
)

// EffectiveFlow returns the runtime definition of a flow: its override when one
// exists, the declared definition otherwise.
func (n *Navigator) EffectiveFlow(route string) (primitives.FlowDefinition, bool) {
	n.flowMu.Lock()
	defer n.flowMu.Unlock()
	def, ok := n.effectiveLocked(route)
	if !ok {
		return primitives.FlowDefinition{}, false
	}
	return def.Clone(), true
}

func (n *Navigator) effectiveLocked(route string) (primitives.FlowDefinition, bool) {
	if def, ok := n.overrides[route]; ok {
		return def, true
	}
	def, ok := n.declared[route]
	return def, ok
}

// Flows lists declared flow routes.
func (n *Navigator) Flows() []string {
	n.flowMu.Lock()
	defer n.flowMu.Unlock()
	out := make([]string, 0, len(n.declared))
	for route := range n.declared {
		out = append(out, route)
	}
	sort.Strings(out)
	return out
}

// StartFlow navigates to the first step of a flow and activates it in one
// published update. Starting while a different flow is active, or starting an
// unknown or unresolvable flow, is a logged no-op returning the current state.
// Starting the flow that is already active restarts it.
func (n *Navigator) StartFlow(route string, params primitives.Params) (NavState, error) {
	n.flowMu.Lock()
	defer n.flowMu.Unlock()

	cur := n.store.Read()
	if active := cur.Flow; active != nil && !active.Completed && active.Route != route {
		n.log.Warn().Str("flow", route).Str("active", active.Route).Msg("guided flow already active, start ignored")
		return cur, nil
	}
	def, ok := n.effectiveLocked(route)
	if !ok || len(def.Steps) == 0 {
		n.log.Warn().Str("flow", route).Msg("guided flow not declared, start ignored")
		return cur, nil
	}

	first := def.Steps[0]
	step := primitives.Step{
		Op:     primitives.OpNavigate,
		Target: first.Target(),
		Params: first.Params.Merge(params),
		Flow:   route,
	}
	now := n.clock()
	state := &primitives.FlowState{
		Route:     route,
		RunID:     uuid.NewString(),
		StepIndex: 0,
		StepCount: len(def.Steps),
		StartedAt: now,
	}
	next, err := n.commit([]primitives.Step{step}, func(*primitives.FlowState) *primitives.FlowState { return state })
	if err != nil {
		n.log.Warn().Err(err).Str("flow", route).Msg("guided flow start failed")
		return next, nil
	}
	if n.metrics != nil {
		n.metrics.FlowStarted(route)
	}
	n.log.Info().Str("flow", route).Str("run", state.RunID).Int("steps", state.StepCount).Msg("guided flow started")
	return next, nil
}

// AdvanceFlow moves the active flow to its next step, or completes it when it is
// on its final step. Completion invokes the flow's completion handler exactly
// once, after the cleared flow state has been published.
func (n *Navigator) AdvanceFlow(params primitives.Params) (NavState, error) {
	var (
		completion primitives.CompletionRef
		result     primitives.FlowResult
		completed  bool
	)
	state, err := n.advanceLocked(params, &completion, &result, &completed)
	if err != nil || !completed {
		return state, err
	}

	if n.metrics != nil {
		n.metrics.FlowCompleted(result.Route, result.Duration)
	}
	n.log.Info().Str("flow", result.Route).Str("run", result.RunID).Dur("took", result.Duration).Msg("guided flow completed")
	n.runCompletion(completion, result)
	return state, nil
}

func (n *Navigator) advanceLocked(params primitives.Params, completion *primitives.CompletionRef, result *primitives.FlowResult, completed *bool) (NavState, error) {
	n.flowMu.Lock()
	defer n.flowMu.Unlock()

	cur := n.store.Read()
	active := cur.Flow
	if active == nil || active.Completed {
		return cur, primitives.NewError("advance_flow", "", primitives.ErrNoActiveFlow)
	}
	def, ok := n.effectiveLocked(active.Route)
	if !ok {
		n.log.Warn().Str("flow", active.Route).Msg("guided flow definition vanished, advance ignored")
		return cur, nil
	}

	if active.StepIndex >= len(def.Steps)-1 {
		now := n.clock()
		*result = primitives.FlowResult{
			Route:       active.Route,
			RunID:       active.RunID,
			StartedAt:   active.StartedAt,
			CompletedAt: now,
			Duration:    now.Sub(active.StartedAt),
			Params:      params.Clone(),
		}
		*completion = def.OnComplete
		*completed = true

		switch def.Policy() {
		case primitives.ClearAll:
			n.overrides = make(map[string]primitives.FlowDefinition)
		case primitives.ClearOwn:
			delete(n.overrides, active.Route)
		}
		return n.commit(nil, func(*primitives.FlowState) *primitives.FlowState { return nil })
	}

	index := active.StepIndex + 1
	next := def.Steps[index]
	step := primitives.Step{
		Op:     primitives.OpNavigate,
		Target: next.Target(),
		Params: next.Params.Merge(params),
		Flow:   active.Route,
	}
	updated := *active
	updated.StepIndex = index
	updated.StepCount = len(def.Steps)
	return n.commit([]primitives.Step{step}, func(*primitives.FlowState) *primitives.FlowState { return &updated })
}

// ModifyFlow applies runtime modifications to a flow definition. The result is
// stored as an override; the declared definition is never changed. When the flow
// is active its step index is re-anchored and the flow state republished.
// Failures are logged and leave the flow untouched.
func (n *Navigator) ModifyFlow(route string, mods ...FlowModification) NavState {
	n.flowMu.Lock()
	defer n.flowMu.Unlock()

	cur := n.store.Read()
	def, ok := n.effectiveLocked(route)
	if !ok {
		n.log.Warn().Str("flow", route).Msg("guided flow not declared, modification ignored")
		return cur
	}

	active := cur.Flow != nil && cur.Flow.Route == route && !cur.Flow.Completed
	index := -1
	if active {
		index = cur.Flow.StepIndex
	}
	for i, mod := range mods {
		var err error
		def, index, err = mod.Apply(def, index)
		if err != nil {
			n.log.Warn().Err(err).Str("flow", route).Int("modification", i).Msg("guided flow modification rejected")
			return cur
		}
	}
	for i, s := range def.Steps {
		if _, err := n.engine.index.Resolve(s.Target()); err != nil {
			n.log.Warn().Err(err).Str("flow", route).Int("step", i).Msg("guided flow modification rejected")
			return cur
		}
	}
	n.overrides[route] = def

	if !active {
		return cur
	}
	next, err := n.commit(nil, func(prev *primitives.FlowState) *primitives.FlowState {
		if len(def.Steps) == 0 {
			return nil
		}
		updated := *prev
		updated.StepIndex = index
		updated.StepCount = len(def.Steps)
		return &updated
	})
	if err != nil {
		n.log.Warn().Err(err).Str("flow", route).Msg("guided flow republish failed")
	}
	return next
}

// ExitFlow abandons the active flow without running its completion handler.
// Runtime modifications are kept.
func (n *Navigator) ExitFlow() (NavState, error) {
	n.flowMu.Lock()
	defer n.flowMu.Unlock()

	cur := n.store.Read()
	if cur.Flow == nil {
		return cur, primitives.NewError("exit_flow", "", primitives.ErrNoActiveFlow)
	}
	n.log.Info().Str("flow", cur.Flow.Route).Int("step", cur.Flow.StepIndex).Msg("guided flow exited")
	return n.commit(nil, func(*primitives.FlowState) *primitives.FlowState { return nil })
}

// ResetFlowOverrides drops every runtime modification.
func (n *Navigator) ResetFlowOverrides() {
	n.flowMu.Lock()
	n.overrides = make(map[string]primitives.FlowDefinition)
	n.flowMu.Unlock()
}

// runCompletion invokes a completion handler, recovering panics. Failures are
// logged and never propagate to the caller.
func (n *Navigator) runCompletion(ref primitives.CompletionRef, result primitives.FlowResult) {
	if ref == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			n.log.Error().Str("flow", result.Route).Interface("panic", r).Msg("guided flow completion handler panicked")
		}
	}()

	var err error
	switch {
	case n.runner != nil:
		err = n.runner.Run(context.Background(), ref, result)
	default:
		fn, ok := ref.(func(context.Context, primitives.FlowResult) error)
		if !ok {
			err = fmt.Errorf("completion handler %T requires a completion runner", ref)
			break
		}
		err = fn(context.Background(), result)
	}
	if err != nil {
		n.log.Error().Err(err).Str("flow", result.Route).Msg("guided flow completion handler failed")
	}
}
