package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/navigatorx/internal/extensibility"
)

// ErrQueueFull is returned by Submit when the frame queue is at capacity.
var ErrQueueFull = errors.New("intent queue full")

// FrameStats describes the work done by one tick.
type FrameStats struct {
	Tick     uint64
	Intents  int
	Batches  int
	Advances int
	Rejected int
}

// FrameRuntime applies queued intents to a navigator at fixed tick boundaries.
type FrameRuntime struct {
	driver   extensibility.Driver
	tickRate time.Duration
	log      zerolog.Logger

	batchMu     sync.Mutex
	queue       []IntentWithMeta
	sequenceNum uint64
	tickNum     uint64
	last        FrameStats

	// tickMu serialises frame processing between the loop and manual Tick calls.
	tickMu sync.Mutex

	ticker     *time.Ticker
	tickCancel context.CancelFunc
	stopped    chan struct{}
}

// Config configures the frame runtime
type Config struct {
	TickRate          time.Duration // Fixed tick rate (default 16.67ms for 60 FPS)
	MaxIntentsPerTick int           // Queue capacity (default: 1000)
	Logger            *zerolog.Logger
}

// NewRuntime creates a frame runtime driving d.
func NewRuntime(d extensibility.Driver, cfg Config) *FrameRuntime {
	if cfg.MaxIntentsPerTick == 0 {
		cfg.MaxIntentsPerTick = 1000
	}
	if cfg.TickRate == 0 {
		cfg.TickRate = 16667 * time.Microsecond
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &FrameRuntime{
		driver:   d,
		tickRate: cfg.TickRate,
		log:      log,
		queue:    make([]IntentWithMeta, 0, cfg.MaxIntentsPerTick),
	}
}

// Start begins tick-based execution.
func (rt *FrameRuntime) Start(ctx context.Context) error {
	if rt.stopped != nil {
		return errors.New("frame runtime already started")
	}
	var tickCtx context.Context
	tickCtx, rt.tickCancel = context.WithCancel(ctx)
	rt.ticker = time.NewTicker(rt.tickRate)
	rt.stopped = make(chan struct{})
	go rt.tickLoop(tickCtx)
	return nil
}

// Stop stops the tick loop and waits for the current frame to finish.
// Intents still queued are left for a later Tick.
func (rt *FrameRuntime) Stop() {
	if rt.tickCancel == nil {
		return
	}
	rt.tickCancel()
	rt.ticker.Stop()
	<-rt.stopped
}

func (rt *FrameRuntime) tickLoop(ctx context.Context) {
	defer close(rt.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case <-rt.ticker.C:
			rt.Tick()
		}
	}
}

// Submit queues an intent for the next tick. Safe for concurrent use.
func (rt *FrameRuntime) Submit(in extensibility.Intent) error {
	return rt.SubmitWithPriority(in, 0)
}

// SubmitWithPriority queues an intent ahead of lower-priority intents of the same frame.
func (rt *FrameRuntime) SubmitWithPriority(in extensibility.Intent, priority int) error {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	if len(rt.queue) >= cap(rt.queue) {
		return ErrQueueFull
	}
	rt.queue = append(rt.queue, IntentWithMeta{
		Intent:      in,
		SequenceNum: rt.sequenceNum,
		Priority:    priority,
	})
	rt.sequenceNum++
	return nil
}

// Pending returns the number of queued intents.
func (rt *FrameRuntime) Pending() int {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return len(rt.queue)
}

// TickNumber returns the number of processed ticks.
func (rt *FrameRuntime) TickNumber() uint64 {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.tickNum
}

// LastFrame returns the stats of the most recent tick.
func (rt *FrameRuntime) LastFrame() FrameStats {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.last
}
