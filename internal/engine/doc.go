// Package engine owns the tick loop.
//
// Ownership boundary:
// - per-tick state assembly from clock and source
// - serial pipeline dispatch, update, and sink writes
// - failure policy (abort or skip)
// - guaranteed release of dispatcher and sink on every exit path
//
// Lifecycle order:
// - build -> run (once) -> closed
package engine
