package extensibility

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/navigatorx/internal/core"
	"github.com/comalice/navigatorx/internal/primitives"
)

// Intent is one request fed into a navigator from outside: a step batch, or a
// guided flow advance when Advance is set.
type Intent struct {
	Steps   []primitives.Step
	Advance bool
	Params  primitives.Params
}

// IntentSource delivers intents until its channel is closed.
type IntentSource interface {
	Intents() <-chan Intent
}

// Driver is the part of the navigator a Pump needs.
type Driver interface {
	Apply(steps ...primitives.Step) (core.NavState, error)
	AdvanceFlow(params primitives.Params) (core.NavState, error)
}

// ChannelIntentSource is an IntentSource backed by a Go channel.
type ChannelIntentSource struct {
	ch chan Intent
}

// NewChannelIntentSource creates a source reading from ch. The channel should
// be buffered if senders must not block.
func NewChannelIntentSource(ch chan Intent) *ChannelIntentSource {
	return &ChannelIntentSource{ch: ch}
}

// Intents returns the receive-only channel.
func (s *ChannelIntentSource) Intents() <-chan Intent {
	return s.ch
}

// Send queues an intent, giving up when ctx is done.
func (s *ChannelIntentSource) Send(ctx context.Context, in Intent) error {
	select {
	case s.ch <- in:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TickerIntentSource emits the same intent every period. Useful for kiosk
// style auto-advancing flows.
type TickerIntentSource struct {
	ch     chan Intent
	intent Intent
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

// NewTickerIntentSource starts a source emitting in every d.
func NewTickerIntentSource(in Intent, d time.Duration) *TickerIntentSource {
	t := &TickerIntentSource{
		ch:     make(chan Intent, 10),
		intent: in,
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TickerIntentSource) run() {
	for {
		select {
		case <-t.ticker.C:
			select {
			case t.ch <- t.intent:
			default:
				// drop if full
			}
		case <-t.stop:
			t.ticker.Stop()
			close(t.ch)
			return
		}
	}
}

// Intents returns the intent channel.
func (t *TickerIntentSource) Intents() <-chan Intent {
	return t.ch
}

// Stop stops the ticker and closes the channel. It is safe to call more than once.
func (t *TickerIntentSource) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// Pump applies intents from src to d until src closes or ctx is done. Rejected
// intents are logged and skipped. It returns the number of intents applied.
func Pump(ctx context.Context, d Driver, src IntentSource, log zerolog.Logger) (int, error) {
	applied := 0
	for {
		select {
		case <-ctx.Done():
			return applied, ctx.Err()
		case in, ok := <-src.Intents():
			if !ok {
				return applied, nil
			}
			var err error
			if in.Advance {
				_, err = d.AdvanceFlow(in.Params)
			} else {
				_, err = d.Apply(in.Steps...)
			}
			switch {
			case err == nil:
				applied++
			case errors.Is(err, primitives.ErrNoActiveFlow):
				log.Debug().Msg("advance intent without an active flow")
			default:
				log.Warn().Err(err).Int("steps", len(in.Steps)).Msg("intent rejected")
			}
		}
	}
}
