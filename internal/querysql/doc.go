// Package querysql compiles document queries to SQL fragments.
//
// A query is a JSON-shaped tree of operators and property paths (see
// package expr). The compiler translates its where-expression into a
// WHERE clause body and its sort-expression into an ORDER BY clause
// body, both meant to be spliced into a host SELECT over the documents
// table. Documents live as opaque blobs in a single column; the emitted
// SQL reaches into them through scalar helper functions (fl_value,
// fl_type, fl_exists, fl_count, fl_contains) and the table-valued
// fl_each, all provided by the execution environment.
//
// Full-text search is handled through one virtual table per indexed
// property, named "<table>::<path>". The compiler assigns each $match
// property a stable 1-based FTS index; the same index is used by the
// WHERE clause, the FROM clause join list, and rank ordering in ORDER
// BY. FTSTableNames reports the virtual tables the host must attach.
//
// A Compiler is single-shot: construct, call Parse or ParseJSON once,
// then read the clauses out. It is not safe for concurrent use, but
// distinct instances share no state.
//
// Emitted strings are either quoted literals with apostrophes doubled
// or named placeholders of the form :_name; user input never reaches
// the SQL text unquoted. The table and column names given to
// NewCompiler are trusted and inlined verbatim - the caller is
// responsible for their safety.
package querysql
