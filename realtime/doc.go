// Package realtime provides a tick-based dispatcher for feeding a navigator
// from a host frame loop.
//
// Navigation requests submitted between two ticks are collected, ordered and
// applied at the tick boundary. Consecutive step batches within a frame are
// coalesced into a single batch, so a frame produces at most one published
// state per run of step batches instead of one per request.
//
// # Example Usage
//
//	nav, _ := navigatorx.New(root)
//	rt := realtime.NewRuntime(nav, realtime.Config{
//		TickRate: 16667 * time.Microsecond, // 60 FPS
//	})
//	rt.Start(ctx)
//	rt.Submit(extensibility.Intent{Steps: navigatorx.Batch().Navigate("settings", nil).Steps()})
//
// # Ordering Guarantees
//
// Requests are ordered deterministically using:
//  1. Priority (higher priority processed first)
//  2. Sequence number (FIFO for same priority)
//  3. Stable sorting (preserves relative order)
//
// A flow advance request splits the frame: the steps queued before it are
// applied first, then the advance, then the steps after it.
//
// # Rejection
//
// When a coalesced batch is rejected the requests that formed it are retried
// one by one, so a single bad request does not discard the rest of the frame.
// A rejected request leaves the published state untouched.
//
// # Trade-offs vs Direct Calls
//
// Latency is bounded by the tick rate (up to 16.67ms at 60 FPS), in exchange
// for one publish per frame and reproducible ordering when several goroutines
// submit within the same frame.
package realtime
