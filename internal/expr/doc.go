// Package expr defines the expression tree that query documents are
// parsed from.
//
// A query arrives either as JSON text or as an already-built tree of
// Value nodes. Value is a sealed interface using the marker method
// pattern: only the types in this package implement it, which keeps
// type switches in the compiler exhaustive.
//
// Object preserves the key order of its source. The compiler iterates
// implicit-AND terms in source order, and identical inputs must produce
// byte-identical SQL, so a Go map (randomized iteration) cannot back the
// object variant.
package expr
