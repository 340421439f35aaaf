// Runtime guided-flow modifications. Each modification produces a new definition
// from the effective one (copy-on-write) and re-anchors the active step index.

package core

import (
	"fmt"

	"github.com/comalice/navigatorx/internal/primitives"
)

// FlowModification transforms a flow definition. current is the active step
// index (or -1 when the flow is not running); the returned index is re-anchored
// against the new step list.
type FlowModification interface {
	Apply(def primitives.FlowDefinition, current int) (primitives.FlowDefinition, int, error)
}

// AddSteps inserts Steps before index At. A negative At appends.
type AddSteps struct {
	At    int
	Steps []primitives.FlowStep
}

func (m AddSteps) Apply(def primitives.FlowDefinition, current int) (primitives.FlowDefinition, int, error) {
	if len(m.Steps) == 0 {
		return def, current, fmt.Errorf("add steps: nothing to add")
	}
	at := m.At
	if at < 0 || at > len(def.Steps) {
		if m.At >= 0 {
			return def, current, fmt.Errorf("add steps: index %d out of range [0,%d]", m.At, len(def.Steps))
		}
		at = len(def.Steps)
	}

	out := def.Clone()
	steps := make([]primitives.FlowStep, 0, len(out.Steps)+len(m.Steps))
	steps = append(steps, out.Steps[:at]...)
	steps = append(steps, m.Steps...)
	steps = append(steps, out.Steps[at:]...)
	out.Steps = steps

	if current >= 0 && at <= current {
		current += len(m.Steps)
	}
	return out, current, nil
}

// RemoveSteps removes the steps at Indices. Unknown indices are rejected.
type RemoveSteps struct {
	Indices []int
}

func (m RemoveSteps) Apply(def primitives.FlowDefinition, current int) (primitives.FlowDefinition, int, error) {
	remove := make(map[int]bool, len(m.Indices))
	for _, i := range m.Indices {
		if i < 0 || i >= len(def.Steps) {
			return def, current, fmt.Errorf("remove steps: index %d out of range [0,%d)", i, len(def.Steps))
		}
		remove[i] = true
	}

	out := def.Clone()
	kept := out.Steps[:0]
	before := 0
	for i, s := range out.Steps {
		if remove[i] {
			if i < current {
				before++
			}
			continue
		}
		kept = append(kept, s)
	}
	out.Steps = kept

	if current >= 0 {
		current -= before
		current = min(current, len(out.Steps)-1)
		current = max(current, 0)
		if len(out.Steps) == 0 {
			current = -1
		}
	}
	return out, current, nil
}

// ReplaceStep swaps the step at Index.
type ReplaceStep struct {
	Index int
	Step  primitives.FlowStep
}

func (m ReplaceStep) Apply(def primitives.FlowDefinition, current int) (primitives.FlowDefinition, int, error) {
	if m.Index < 0 || m.Index >= len(def.Steps) {
		return def, current, fmt.Errorf("replace step: index %d out of range [0,%d)", m.Index, len(def.Steps))
	}
	if m.Step.Target().IsZero() {
		return def, current, fmt.Errorf("replace step: step has no route")
	}
	out := def.Clone()
	out.Steps[m.Index] = m.Step
	return out, current, nil
}

// UpdateStepParams sets the params of the step at Index. With Merge, Params are
// merged over the existing ones instead of replacing them.
type UpdateStepParams struct {
	Index  int
	Params primitives.Params
	Merge  bool
}

func (m UpdateStepParams) Apply(def primitives.FlowDefinition, current int) (primitives.FlowDefinition, int, error) {
	if m.Index < 0 || m.Index >= len(def.Steps) {
		return def, current, fmt.Errorf("update step params: index %d out of range [0,%d)", m.Index, len(def.Steps))
	}
	out := def.Clone()
	if m.Merge {
		out.Steps[m.Index].Params = out.Steps[m.Index].Params.Merge(m.Params)
	} else {
		out.Steps[m.Index].Params = m.Params.Clone()
	}
	return out, current, nil
}

// ReplaceCompletion swaps the completion handler reference.
type ReplaceCompletion struct {
	OnComplete primitives.CompletionRef
}

func (m ReplaceCompletion) Apply(def primitives.FlowDefinition, current int) (primitives.FlowDefinition, int, error) {
	out := def.Clone()
	out.OnComplete = m.OnComplete
	return out, current, nil
}
