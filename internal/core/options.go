// Options for configuring Navigator instances.
package core

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/navigatorx/internal/primitives"
)

// WithStore configures the Navigator with a custom observable Store.
func WithStore(s Store) Option {
	return func(n *Navigator) {
		n.store = s
	}
}

// WithLogger configures the Navigator's logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(n *Navigator) {
		n.log = l
	}
}

// WithPersister configures the Navigator with a custom Persister.
func WithPersister(p Persister) Option {
	return func(n *Navigator) {
		n.persister = p
	}
}

// WithVisualizer configures the Navigator with a custom Visualizer.
func WithVisualizer(v Visualizer) Option {
	return func(n *Navigator) {
		n.visualizer = v
	}
}

// WithMetrics configures the Navigator with a MetricsRecorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(n *Navigator) {
		n.metrics = m
	}
}

// WithCompletionRunner configures how flow completion handlers are invoked.
func WithCompletionRunner(r CompletionRunner) Option {
	return func(n *Navigator) {
		n.runner = r
	}
}

// WithFlows declares guided flows keyed by flow route.
// Declared definitions are validated when the Navigator is built.
func WithFlows(flows map[string]primitives.FlowDefinition) Option {
	return func(n *Navigator) {
		for route, def := range flows {
			n.declared[route] = def.Clone()
		}
	}
}

// WithFlow declares a single guided flow.
func WithFlow(route string, def primitives.FlowDefinition) Option {
	return func(n *Navigator) {
		n.declared[route] = def.Clone()
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(n *Navigator) {
		n.clock = clock
	}
}

// WithTransitionTimers enables or disables the transition-state reset timer.
// When disabled, published states keep Animating set until the next batch.
func WithTransitionTimers(enabled bool) Option {
	return func(n *Navigator) {
		n.timers = enabled
	}
}

// WithDimAlpha sets the alpha applied to screens dimmed beneath modals. Values
// outside [0, 1] keep DefaultDimAlpha.
func WithDimAlpha(alpha float64) Option {
	return func(n *Navigator) {
		n.dimAlpha = alpha
	}
}

// WithSessionID pins the session id (random by default).
func WithSessionID(id string) Option {
	return func(n *Navigator) {
		if id != "" {
			n.sessionID = id
		}
	}
}

// WithTreeVersion records the declaration tree version stamped into snapshots.
func WithTreeVersion(version string) Option {
	return func(n *Navigator) {
		if version != "" {
			n.treeVersion = version
		}
	}
}
