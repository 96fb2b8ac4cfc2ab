// Package clock owns the tick time source for the engine.
//
// Ownership boundary:
// - simulated step clock
// - realtime ticker clock
package clock
