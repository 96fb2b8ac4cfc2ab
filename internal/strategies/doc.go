// Package strategies owns the builtin strategy kinds.
//
// Builtins are registered explicitly through RegisterBuiltins; there is no
// discovery step.
package strategies
