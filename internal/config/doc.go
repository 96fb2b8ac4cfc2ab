// Package config owns the run configuration file.
//
// Ownership boundary:
// - TOML and YAML decoding with defaults
// - validation of names, priorities, merges, and policies
// - conversion into dispatch, clock, source, sink, and engine values
// - starter templates
package config
