// Package store is the SQLite-backed document store that hosts the SQL
// produced by package querysql.
//
// Documents are stored as JSON blobs in a single table with key and
// sequence columns. Each connection registers the scalar helper
// functions the compiled SQL calls (fl_value, fl_type, fl_exists,
// fl_count, fl_contains) plus rank for FTS ordering, so generated
// clauses can be spliced into a SELECT and executed as-is.
//
// Full-text search: CreateFTSIndex materializes one fts4 virtual table
// per indexed property path, named "<table>::<path>", kept current on
// every Put and joined by rowid = sequence. Indexed text is
// NFC-normalized before tokenizing.
//
// Known gap: fl_each is a table-valued function, which cannot be
// registered from Go, so $elemMatch queries compile but cannot be
// executed by this store.
package store
