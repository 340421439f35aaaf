package navigatorx

import "github.com/comalice/navigatorx/internal/primitives"

// BatchBuilder assembles a navigation batch. Every method returns a new
// builder; earlier builders and the slices they returned are never changed.
//
//	steps := navigatorx.Batch().
//		PopUpTo("home", false).
//		Navigate("settings", nil).
//		Steps()
type BatchBuilder struct {
	steps []Step
}

// Batch starts an empty batch.
func Batch() BatchBuilder {
	return BatchBuilder{}
}

func (b BatchBuilder) with(s Step) BatchBuilder {
	steps := make([]Step, len(b.steps), len(b.steps)+1)
	copy(steps, b.steps)
	return BatchBuilder{steps: append(steps, s)}
}

// editLast applies fn to a copy of the last step. It is a no-op on an empty batch.
func (b BatchBuilder) editLast(fn func(*Step)) BatchBuilder {
	if len(b.steps) == 0 {
		return b
	}
	steps := make([]Step, len(b.steps))
	copy(steps, b.steps)
	fn(&steps[len(steps)-1])
	return BatchBuilder{steps: steps}
}

// Navigate pushes the destination at path.
func (b BatchBuilder) Navigate(path string, params Params) BatchBuilder {
	return b.NavigateTo(primitives.PathTarget(path), params)
}

// NavigateTo pushes target.
func (b BatchBuilder) NavigateTo(target Target, params Params) BatchBuilder {
	return b.with(Step{Op: primitives.OpNavigate, Target: target, Params: params.Clone()})
}

// Replace swaps the current entry for the destination at path.
func (b BatchBuilder) Replace(path string, params Params) BatchBuilder {
	return b.with(Step{Op: primitives.OpReplace, Target: primitives.PathTarget(path), Params: params.Clone()})
}

// Back pops one entry.
func (b BatchBuilder) Back() BatchBuilder {
	return b.with(Step{Op: primitives.OpBack})
}

// PopUpTo pops to the most recent entry matching path, removing it too when
// inclusive is set.
func (b BatchBuilder) PopUpTo(path string, inclusive bool) BatchBuilder {
	return b.with(Step{Op: primitives.OpPopUpTo, PopTo: primitives.PathTarget(path), Inclusive: inclusive})
}

// ClearBackStack empties the stack. A later step in the batch must push a destination.
func (b BatchBuilder) ClearBackStack() BatchBuilder {
	return b.with(Step{Op: primitives.OpClearBackStack})
}

// ClearAndNavigate empties the stack and pushes the destination at path.
func (b BatchBuilder) ClearAndNavigate(path string, params Params) BatchBuilder {
	return b.with(Step{Op: primitives.OpClearBackStack, Target: primitives.PathTarget(path), Params: params.Clone()})
}

// DismissModals makes the last step drop modals from the stack before it applies.
func (b BatchBuilder) DismissModals() BatchBuilder {
	return b.editLast(func(s *Step) { s.DismissModals = true })
}

// WithParams merges params into the last step's params.
func (b BatchBuilder) WithParams(params Params) BatchBuilder {
	return b.editLast(func(s *Step) { s.Params = s.Params.Merge(params) })
}

// Len returns the number of steps.
func (b BatchBuilder) Len() int {
	return len(b.steps)
}

// Steps returns a copy of the assembled steps.
func (b BatchBuilder) Steps() []Step {
	out := make([]Step, len(b.steps))
	copy(out, b.steps)
	return out
}

// Apply applies the batch to n as one atomic publish.
func (b BatchBuilder) Apply(n *Navigator) (NavState, error) {
	return n.Apply(b.Steps()...)
}
