// Package primitives provides the foundational data structures for the navigation
// engine: the static declaration tree (graphs, screens, modals), navigation entries,
// steps, modal contexts and guided-flow definitions.
//
// This package uses ONLY the Go standard library. Everything here is plain data
// that the engine in internal/core folds over; nothing in this package mutates
// shared state.
//
// Core invariants:
//   - Declaration trees are immutable once handed to the route index
//   - Back stack positions are contiguous and equal to the slice index
//   - Flow definitions are replaced, never edited in place (copy-on-write)
package primitives
