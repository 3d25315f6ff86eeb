// Package harness provides a conformance testing framework for the
// query compiler.
//
// Scenarios are YAML files pairing a document query (predicate plus
// sort) with the SQL the compiler is expected to produce. The harness
// compiles each scenario and snapshots the resulting WHERE, ORDER BY
// and FROM clauses against golden files, so any change to generated
// SQL shows up as a reviewable diff.
//
// Scenario predicates are decoded through yaml.Node rather than plain
// maps so that key order survives the trip from file to compiler;
// clause output depends on it.
package harness
