// Modal context table: tracks which screen each modal was opened over so that
// dismissal and back navigation restore the right thing.

package core

import "github.com/comalice/navigatorx/internal/primitives"

// modalTable is the working copy of the modal side table during a fold.
// It is only ever mutated by the step engine on its private copy.
type modalTable primitives.ModalContexts

// record opens a context for modal, opened while current was showing. Chained
// modals inherit the underlying screen of the modal they were opened from.
func (t modalTable) record(modal, current primitives.Entry, stack []primitives.Entry) {
	underlying := current
	if current.IsModal() {
		if prev, ok := t[current.Route()]; ok {
			underlying = prev.Underlying
		} else {
			underlying = lastScreen(stack, len(stack))
		}
	}
	t[modal.Route()] = primitives.ModalContext{
		Modal:       modal,
		Underlying:  underlying,
		CreatedFrom: current.Route(),
	}
}

// navigatedAway marks that the user left modalRoute for route without dismissing it.
func (t modalTable) navigatedAway(modalRoute, route string) {
	if ctx, ok := t[modalRoute]; ok {
		ctx.NavigatedAwayTo = route
		t[modalRoute] = ctx
	}
}

// restore returns the modal entry to re-show for route and clears its
// navigated-away marker.
func (t modalTable) restore(route string) (primitives.Entry, bool) {
	ctx, ok := t[route]
	if !ok {
		return primitives.Entry{}, false
	}
	ctx.NavigatedAwayTo = ""
	t[route] = ctx
	return ctx.Modal, true
}

// drop removes the context for route.
func (t modalTable) drop(route string) {
	delete(t, route)
}

// clear removes every context.
func (t modalTable) clear() {
	for k := range t {
		delete(t, k)
	}
}

// prune drops contexts whose modal is no longer on the stack.
func (t modalTable) prune(stack []primitives.Entry) {
	onStack := make(map[string]bool, len(stack))
	for _, e := range stack {
		if e.IsModal() {
			onStack[e.Route()] = true
		}
	}
	for route := range t {
		if !onStack[route] {
			delete(t, route)
		}
	}
}

// underlyingScreen returns the screen shown beneath the modal entry at position
// modal.Position, preferring the recorded context and refreshing it from the stack.
func underlyingScreen(contexts primitives.ModalContexts, modal primitives.Entry, stack []primitives.Entry) primitives.Entry {
	if ctx, ok := contexts[modal.Route()]; ok && ctx.Underlying.Valid() {
		p := ctx.Underlying.Position
		if p >= 0 && p < len(stack) && stack[p].Route() == ctx.Underlying.Route() {
			return stack[p]
		}
		for i := min(modal.Position, len(stack)) - 1; i >= 0; i-- {
			if stack[i].Route() == ctx.Underlying.Route() {
				return stack[i]
			}
		}
		return ctx.Underlying
	}
	return lastScreen(stack, modal.Position)
}

// lastScreen returns the last non-modal entry strictly below position before.
func lastScreen(stack []primitives.Entry, before int) primitives.Entry {
	for i := min(before, len(stack)) - 1; i >= 0; i-- {
		if !stack[i].IsModal() {
			return stack[i]
		}
	}
	return primitives.Entry{}
}
