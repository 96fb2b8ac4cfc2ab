// Package dispatch owns named pipelines and their invocation.
//
// Ownership boundary:
// - pipeline construction from registry definitions
// - pipeline ordering by priority
// - name -> composer selection
// - lifecycle broadcast and guaranteed close
//
// A Dispatcher is driven by a single tick loop.
package dispatch
