package realtime

import (
	"errors"

	"github.com/comalice/navigatorx/internal/core"
	"github.com/comalice/navigatorx/internal/extensibility"
	"github.com/comalice/navigatorx/internal/primitives"
)

// Tick processes one frame synchronously. The tick loop calls it on every
// tick; hosts with their own frame loop may call it directly instead of Start.
func (rt *FrameRuntime) Tick() FrameStats {
	rt.tickMu.Lock()
	defer rt.tickMu.Unlock()

	intents := rt.collectIntents()
	sortIntents(intents)

	stats := FrameStats{Intents: len(intents)}
	func() {
		defer func() {
			if r := recover(); r != nil {
				rt.log.Error().Interface("panic", r).Msg("frame processing panicked")
			}
		}()
		rt.processIntents(intents, &stats)
	}()

	rt.batchMu.Lock()
	rt.tickNum++
	stats.Tick = rt.tickNum
	rt.last = stats
	rt.batchMu.Unlock()
	return stats
}

// collectIntents atomically retrieves and clears the queue
func (rt *FrameRuntime) collectIntents() []IntentWithMeta {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	intents := rt.queue
	rt.queue = make([]IntentWithMeta, 0, cap(rt.queue))
	return intents
}

// processIntents applies runs of step intents with one publish per run, with
// advances in between.
func (rt *FrameRuntime) processIntents(intents []IntentWithMeta, stats *FrameStats) {
	var run []extensibility.Intent
	flush := func() {
		if len(run) > 0 {
			rt.applyRun(run, stats)
			run = run[:0]
		}
	}

	for _, meta := range intents {
		in := meta.Intent
		if !in.Advance {
			if len(in.Steps) > 0 {
				run = append(run, in)
			}
			continue
		}
		flush()
		stats.Advances++
		if _, err := rt.driver.AdvanceFlow(in.Params); err != nil {
			if !errors.Is(err, primitives.ErrNoActiveFlow) {
				stats.Rejected++
			}
			rt.log.Debug().Err(err).Msg("frame advance not applied")
		}
	}
	flush()
}

// frameDriver applies several batches with a single publish, checking each
// against the state the batches before it leave behind.
type frameDriver interface {
	ApplyEach(batches ...[]primitives.Step) (core.NavState, []error)
}

// applyRun applies each intent of run as its own batch, so an intent the
// navigator would reject alone is rejected here too. Drivers that support it
// publish the whole run once.
func (rt *FrameRuntime) applyRun(run []extensibility.Intent, stats *FrameStats) {
	fd, ok := rt.driver.(frameDriver)
	if !ok {
		for _, in := range run {
			if _, err := rt.driver.Apply(in.Steps...); err != nil {
				rt.reject(err, in, stats)
				continue
			}
			stats.Batches++
		}
		return
	}

	batches := make([][]primitives.Step, len(run))
	for i, in := range run {
		batches[i] = in.Steps
	}
	_, errs := fd.ApplyEach(batches...)
	applied := false
	for i, err := range errs {
		if err != nil {
			rt.reject(err, run[i], stats)
			continue
		}
		applied = true
	}
	if applied {
		stats.Batches++
	}
}

func (rt *FrameRuntime) reject(err error, in extensibility.Intent, stats *FrameStats) {
	stats.Rejected++
	rt.log.Warn().Err(err).Int("steps", len(in.Steps)).Msg("frame intent rejected")
}
