// Package strategy owns the per-tick strategy contract and its ordered composition.
//
// Ownership boundary:
// - strategy lifecycle interface (next, update, clear, close)
// - priority ordering
// - composer fold and broadcast
//
// Lifecycle order:
// - construct -> (next -> update)* -> close
// - clear may run between ticks and resets accumulated state.
// - close is idempotent on Composer; the first call reaches every child.
//
// Composition does not own configuration or name resolution.
package strategy
