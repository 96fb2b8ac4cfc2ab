// Package sink owns the write-only destinations for settled tick results.
//
// Ownership boundary:
// - record shape
// - log, sqlite, and in-memory destinations
// - fan-out with close on every destination
package sink
