package primitives

// ModalContext records which screen a modal was opened over.
//
// Contexts are keyed by modal route, so only one instance per modal route can be
// tracked at a time.
type ModalContext struct {
	Modal Entry `json:"modal" yaml:"modal"`
	// Underlying is the screen the modal (or the first modal of a chain) was
	// opened over. Chained modals share the same underlying screen.
	Underlying Entry `json:"underlying" yaml:"underlying"`
	// NavigatedAwayTo is the route navigated to while the modal stayed open.
	NavigatedAwayTo string `json:"navigated_away_to,omitempty" yaml:"navigated_away_to,omitempty"`
	CreatedFrom     string `json:"created_from,omitempty" yaml:"created_from,omitempty"`
}

// ModalContexts is the modal side table keyed by modal route.
type ModalContexts map[string]ModalContext

// Clone returns a copy safe to mutate. A nil receiver yields an empty table.
func (m ModalContexts) Clone() ModalContexts {
	out := make(ModalContexts, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Lookup returns the context for a modal route.
func (m ModalContexts) Lookup(route string) (ModalContext, bool) {
	ctx, ok := m[route]
	return ctx, ok
}
