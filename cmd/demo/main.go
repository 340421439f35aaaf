package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comalice/navigatorx"
	"github.com/comalice/navigatorx/internal/extensibility"
	"github.com/comalice/navigatorx/internal/logging"
	"github.com/comalice/navigatorx/internal/production"
)

func main() {
	logging.ConfigureRuntime()

	root := navigatorx.NewGraph("kiosk").StartAt("attract").
		Screen("attract", navigatorx.WithTitle("Welcome")).
		Screen("menu", navigatorx.WithTitle("Menu")).
		Modal("promo", navigatorx.WithDim()).
		Graph("order").StartAt("basket").
		Screen("basket", navigatorx.WithTitle("Basket")).
		Screen("pay").
		End().
		MustBuild()

	persister, err := production.NewJSONPersister(os.TempDir())
	if err != nil {
		panic(err)
	}
	store := production.NewMemoryStore()
	defer store.Close()
	published, cancel := store.Subscribe(16)
	defer cancel()

	nav, err := navigatorx.New(root,
		navigatorx.WithStore(store),
		navigatorx.WithPersister(persister),
		navigatorx.WithVisualizer(&production.DefaultVisualizer{}),
		navigatorx.WithLogger(logging.For("demo")),
	)
	if err != nil {
		panic(err)
	}

	script := []navigatorx.BatchBuilder{
		navigatorx.Batch().Navigate("menu", nil),
		navigatorx.Batch().Navigate("promo", nil),
		navigatorx.Batch().Navigate("basket", navigatorx.Params{"items": 2}),
		navigatorx.Batch().Back(),
		navigatorx.Batch().Back(),
		navigatorx.Batch().Navigate("pay", nil).DismissModals(),
		navigatorx.Batch().ClearAndNavigate("attract", nil),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Kiosk input arrives on a channel and is pumped into the navigator
	input := extensibility.NewChannelIntentSource(make(chan extensibility.Intent, 4))
	go func() {
		n, _ := extensibility.Pump(ctx, nav, input, logging.For("pump"))
		fmt.Printf("Pump stopped after %d intents\n", n)
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	cycles := 0
	for {
		select {
		case <-ticker.C:
			batch := script[cycles%len(script)]
			if err := input.Send(ctx, extensibility.Intent{Steps: batch.Steps()}); err != nil {
				fmt.Printf("Send error: %v\n", err)
			}
			fmt.Printf("\n--- Cycle %d ---\n", cycles+1)
			// Drain publish notifications
			for drained := false; !drained; {
				select {
				case s := <-published:
					fmt.Printf("Published: v%d /%s (depth %d, modal %v) %s\n",
						s.Version, s.Derived.FullPath, s.Derived.Depth, s.Derived.IsModal, s.Transition.Plan)
				case <-time.After(100 * time.Millisecond):
					drained = true
				}
			}
			fmt.Println("DOT:\n" + nav.Visualize())
			cycles++
			if cycles >= 12 {
				fmt.Printf("Demo complete after 12 cycles. Snapshots in %s\n", os.TempDir())
				return
			}
		case <-ctx.Done():
			fmt.Println("\nShutting down gracefully...")
			return
		}
	}
}
