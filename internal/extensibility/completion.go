package extensibility

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/navigatorx/internal/core"
	"github.com/comalice/navigatorx/internal/primitives"
)

// CompletionFunc is the plain function form of a completion handler.
type CompletionFunc func(ctx context.Context, result primitives.FlowResult) error

// CompletionHandler is implemented by values that react to a finished guided flow.
type CompletionHandler interface {
	OnFlowComplete(ctx context.Context, result primitives.FlowResult) error
}

// DefaultCompletionRunner resolves completion references: functions, handler
// values, and string ids registered with Register.
type DefaultCompletionRunner struct {
	mu       sync.RWMutex
	handlers map[string]CompletionFunc
}

// NewCompletionRunner creates a runner with an empty registry.
func NewCompletionRunner() *DefaultCompletionRunner {
	return &DefaultCompletionRunner{handlers: make(map[string]CompletionFunc)}
}

// Register binds id to fn, replacing any earlier binding.
func (r *DefaultCompletionRunner) Register(id string, fn CompletionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = make(map[string]CompletionFunc)
	}
	r.handlers[id] = fn
}

func (r *DefaultCompletionRunner) lookup(id string) (CompletionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[id]
	return fn, ok
}

// Run executes the referenced handler. A panicking handler is reported as an error.
func (r *DefaultCompletionRunner) Run(ctx context.Context, ref primitives.CompletionRef, result primitives.FlowResult) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("completion handler for flow %q panicked: %v", result.Route, p)
		}
	}()

	switch h := ref.(type) {
	case nil:
		return nil
	case CompletionFunc:
		return h(ctx, result)
	case func(context.Context, primitives.FlowResult) error:
		return h(ctx, result)
	case func(primitives.FlowResult):
		h(result)
		return nil
	case CompletionHandler:
		return h.OnFlowComplete(ctx, result)
	case string:
		fn, ok := r.lookup(h)
		if !ok {
			return fmt.Errorf("completion handler ID '%s' not registered", h)
		}
		return fn(ctx, result)
	default:
		return fmt.Errorf("unknown completion handler type: %T", ref)
	}
}

// LoggingCompletionRunner wraps a CompletionRunner and logs every invocation.
type LoggingCompletionRunner struct {
	inner core.CompletionRunner
	log   zerolog.Logger
}

// NewLoggingCompletionRunner creates a LoggingCompletionRunner around inner.
func NewLoggingCompletionRunner(inner core.CompletionRunner, log zerolog.Logger) *LoggingCompletionRunner {
	return &LoggingCompletionRunner{inner: inner, log: log}
}

// Run logs before and after delegating to the inner runner.
func (r *LoggingCompletionRunner) Run(ctx context.Context, ref primitives.CompletionRef, result primitives.FlowResult) error {
	r.log.Debug().Str("flow", result.Route).Str("run_id", result.RunID).Str("handler", fmt.Sprintf("%T", ref)).Msg("running completion handler")
	start := time.Now()
	err := r.inner.Run(ctx, ref, result)
	ev := r.log.Info()
	if err != nil {
		ev = r.log.Warn().Err(err)
	}
	ev.Str("flow", result.Route).Dur("took", time.Since(start)).Msg("completion handler finished")
	return err
}
