// Package registry owns capability name -> strategy factory resolution.
//
// Ownership boundary:
// - factory registration and name validation
// - definition params decoding
// - unknown-name failures
//
// A Registry is an explicit value. Populate it at startup, Seal it, then share
// it for concurrent reads.
package registry
