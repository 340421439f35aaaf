// Step application engine: folds an ordered batch of steps over the canonical
// (current entry, back stack, modal contexts) triple. Pure; the input triple is
// never modified and a failed batch yields no partial result.

package core

import (
	"fmt"
	"time"

	"github.com/comalice/navigatorx/internal/primitives"
)

// Triple is the canonical navigation state.
type Triple struct {
	Current   primitives.Entry         `json:"current" yaml:"current"`
	BackStack []primitives.Entry       `json:"back_stack" yaml:"back_stack"`
	Modals    primitives.ModalContexts `json:"modals,omitempty" yaml:"modals,omitempty"`
}

// Clone returns a copy that shares no mutable storage with t.
func (t Triple) Clone() Triple {
	return Triple{
		Current:   t.Current,
		BackStack: append([]primitives.Entry(nil), t.BackStack...),
		Modals:    t.Modals.Clone(),
	}
}

// Engine applies step batches against a route index.
type Engine struct {
	index *RouteIndex
}

// NewEngine creates an engine over a prebuilt route index.
func NewEngine(index *RouteIndex) *Engine {
	return &Engine{index: index}
}

// Index returns the engine's route index.
func (e *Engine) Index() *RouteIndex {
	return e.index
}

// fold is the running state of a batch.
type fold struct {
	current primitives.Entry
	stack   []primitives.Entry
	modals  modalTable
}

// Validate rejects step combinations that can never be applied.
func (e *Engine) Validate(steps []primitives.Step) error {
	if len(steps) == 0 {
		return primitives.Errorf("apply", "", primitives.ErrInvalidOperation, "empty batch")
	}
	var hasClear, hasPop bool
	for i, s := range steps {
		if err := s.Validate(); err != nil {
			return primitives.Errorf("apply", s.Target.String(), primitives.ErrInvalidOperation, "step %d: %v", i, err)
		}
		switch s.Op {
		case primitives.OpBack:
			if len(steps) > 1 {
				return primitives.Errorf("apply", "", primitives.ErrInvalidOperation, "back cannot be combined with other steps")
			}
		case primitives.OpClearBackStack:
			hasClear = true
			if s.Target.IsZero() && !populatesLater(steps[i+1:]) {
				return primitives.Errorf("apply", "", primitives.ErrInvalidOperation, "clear_back_stack without target must be followed by navigate or replace")
			}
		case primitives.OpPopUpTo:
			hasPop = true
		}
	}
	if hasClear && hasPop {
		return primitives.Errorf("apply", "", primitives.ErrInvalidOperation, "clear_back_stack cannot be combined with pop_up_to")
	}
	return nil
}

// Apply folds steps over in and returns the resulting triple.
func (e *Engine) Apply(steps []primitives.Step, in Triple) (Triple, error) {
	if err := e.Validate(steps); err != nil {
		return in, err
	}
	if steps[0].Op == primitives.OpBack && len(in.BackStack) <= 1 {
		return in, nil
	}

	f := &fold{
		current: in.Current,
		stack:   append([]primitives.Entry(nil), in.BackStack...),
		modals:  modalTable(in.Modals.Clone()),
	}
	for i, s := range steps {
		var err error
		switch s.Op {
		case primitives.OpNavigate:
			err = e.navigate(f, s)
		case primitives.OpReplace:
			err = e.replace(f, s)
		case primitives.OpBack:
			e.back(f)
		case primitives.OpPopUpTo:
			err = e.popUpTo(f, s, steps[i+1:])
		case primitives.OpClearBackStack:
			err = e.clearBackStack(f, s)
		}
		if err != nil {
			return in, err
		}
	}

	if len(f.stack) == 0 {
		return in, primitives.Errorf("apply", "", primitives.ErrInvalidOperation, "batch leaves an empty back stack")
	}
	return f.finish(), nil
}

// finish re-stamps positions and reconciles modal contexts with the final stack.
func (f *fold) finish() Triple {
	stack := primitives.Restamp(f.stack)
	f.modals.prune(stack)
	for route, ctx := range f.modals {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].Route() == route {
				ctx.Modal = stack[i]
				break
			}
		}
		if ctx.Underlying.Valid() {
			ctx.Underlying = underlyingScreen(primitives.ModalContexts(f.modals), ctx.Modal, stack)
		}
		f.modals[route] = ctx
	}
	return Triple{
		Current:   primitives.Top(stack),
		BackStack: stack,
		Modals:    primitives.ModalContexts(f.modals),
	}
}

func (e *Engine) resolve(op string, t primitives.Target, params primitives.Params) (primitives.Entry, error) {
	res, err := e.index.Resolve(t)
	if err != nil {
		if ne, ok := err.(*primitives.NavigationError); ok {
			return primitives.Entry{}, &primitives.NavigationError{Op: op, Route: ne.Route, Err: ne.Err}
		}
		return primitives.Entry{}, err
	}
	return res.Entry(params), nil
}

func (e *Engine) navigate(f *fold, s primitives.Step) error {
	entry, err := e.resolve("navigate", s.Target, s.Params)
	if err != nil {
		return err
	}

	if entry.IsModal() {
		entry = entry.At(len(f.stack))
		f.modals.record(entry, f.current, f.stack)
		f.stack = append(f.stack, entry)
		f.current = entry
		return nil
	}

	base := f.stack
	if s.DismissModals {
		base = withoutModals(base)
	} else if f.current.IsModal() {
		f.modals.navigatedAway(f.current.Route(), entry.Route())
	}
	entry = entry.At(len(base))
	f.stack = append(base, entry)
	f.current = entry
	return nil
}

func (e *Engine) replace(f *fold, s primitives.Step) error {
	entry, err := e.resolve("replace", s.Target, s.Params)
	if err != nil {
		return err
	}

	base := f.stack
	if s.DismissModals {
		base = withoutModals(base)
	}
	replaced := primitives.Top(base)
	if len(base) > 0 {
		base = base[:len(base)-1 : len(base)-1]
	}
	entry = entry.At(len(base))

	if entry.IsModal() {
		if replaced.IsModal() {
			f.modals.record(entry, replaced, base)
		} else {
			f.modals.record(entry, primitives.Top(base), base)
		}
	}
	if replaced.IsModal() && replaced.Route() != entry.Route() {
		f.modals.drop(replaced.Route())
	}

	f.stack = append(base, entry)
	f.current = entry
	return nil
}

func (e *Engine) back(f *fold) {
	dropped := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1 : len(f.stack)-1]
	last := len(f.stack) - 1
	top := f.stack[last].At(last)

	if top.IsModal() {
		if modal, ok := f.modals.restore(top.Route()); ok {
			top = modal.At(last)
		}
	}
	f.stack[last] = top

	if _, hadCtx := f.modals[dropped.Route()]; hadCtx {
		if _, restoredCtx := f.modals[top.Route()]; !restoredCtx {
			f.modals.drop(dropped.Route())
		}
	}
	f.current = top
}

func (e *Engine) popUpTo(f *fold, s primitives.Step, rest []primitives.Step) error {
	at := e.locateTarget(s.PopTo, f.stack)
	if at < 0 {
		return primitives.NewError("pop_up_to", s.PopTo.String(), primitives.ErrRouteNotFound)
	}
	cut := at + 1
	if s.Inclusive {
		cut = at
	}
	if cut == 0 && s.Target.IsZero() && !populatesLater(rest) {
		return primitives.Errorf("pop_up_to", s.PopTo.String(), primitives.ErrInvalidOperation, "inclusive pop would empty the back stack")
	}
	f.stack = f.stack[:cut:cut]
	f.current = primitives.Top(f.stack)

	if s.Target.IsZero() {
		return nil
	}
	entry, err := e.resolve("pop_up_to", s.Target, s.Params)
	if err != nil {
		return err
	}
	entry = entry.At(len(f.stack))
	if entry.IsModal() {
		f.modals.record(entry, f.current, f.stack)
	}
	f.stack = append(f.stack, entry)
	f.current = entry
	return nil
}

// locateTarget finds the last stack index of a pop-to target.
func (e *Engine) locateTarget(t primitives.Target, stack []primitives.Entry) int {
	if t.Path != "" {
		if at := e.index.Locate(t.Path, stack); at >= 0 {
			return at
		}
	}
	res, err := e.index.Resolve(t)
	if err != nil {
		return -1
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Destination == res.Destination {
			return i
		}
	}
	return -1
}

func (e *Engine) clearBackStack(f *fold, s primitives.Step) error {
	f.modals.clear()
	f.stack = nil
	f.current = primitives.Entry{}
	if s.Target.IsZero() {
		return nil
	}
	entry, err := e.resolve("clear_back_stack", s.Target, s.Params)
	if err != nil {
		return err
	}
	entry = entry.At(0)
	f.stack = []primitives.Entry{entry}
	f.current = entry
	return nil
}

func withoutModals(stack []primitives.Entry) []primitives.Entry {
	out := make([]primitives.Entry, 0, len(stack))
	for _, e := range stack {
		if !e.IsModal() {
			out = append(out, e)
		}
	}
	return out
}

func populatesLater(rest []primitives.Step) bool {
	for _, s := range rest {
		if s.Populates() {
			return true
		}
	}
	return false
}

// AnimationPlan is the engine's decision about animating a transition. The caller
// schedules the transition-state reset after Duration.
type AnimationPlan struct {
	Animate  bool                  `json:"animate"`
	Pop      bool                  `json:"pop,omitempty"`
	From     string                `json:"from,omitempty"`
	To       string                `json:"to,omitempty"`
	Enter    primitives.Transition `json:"enter"`
	Exit     primitives.Transition `json:"exit"`
	Duration time.Duration         `json:"duration"`
}

func (p AnimationPlan) String() string {
	if !p.Animate {
		return "no animation"
	}
	return fmt.Sprintf("%s -> %s (%s)", p.From, p.To, p.Duration)
}

// PlanTransition decides whether moving from one current entry to another animates.
// Only route changes with a non-zero enter or exit duration animate.
func PlanTransition(from, to primitives.Entry, pop bool) AnimationPlan {
	plan := AnimationPlan{Pop: pop, From: from.Route(), To: to.Route()}
	if !from.Valid() || !to.Valid() || from.Route() == to.Route() {
		return plan
	}
	plan.Enter = to.Destination.EnterFor(pop)
	plan.Exit = from.Destination.ExitFor(pop)
	plan.Duration = max(plan.Enter.Duration, plan.Exit.Duration)
	plan.Animate = plan.Duration > 0
	return plan
}

// IsPopBatch reports whether a batch only moves backwards.
func IsPopBatch(steps []primitives.Step) bool {
	if len(steps) == 0 {
		return false
	}
	for _, s := range steps {
		switch {
		case s.Op == primitives.OpBack:
		case s.Op == primitives.OpPopUpTo && s.Target.IsZero():
		default:
			return false
		}
	}
	return true
}
