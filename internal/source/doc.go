// Package source owns per-tick named inputs for the engine.
//
// Ownership boundary:
// - static inputs
// - CSV profiles loaded once at startup
// - merge of several sources
package source
