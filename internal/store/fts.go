package store

import (
	"database/sql"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// ftsTableIdent returns the quoted identifier of the FTS virtual table
// for path, e.g. "kv_default::bio".
func (s *Store) ftsTableIdent(path string) string {
	return `"` + s.table + "::" + path + `"`
}

// CreateFTSIndex materializes a full-text index over the string values
// at the given property path and backfills it from existing documents.
// Creating an existing index is a no-op.
func (s *Store) CreateFTSIndex(path string) error {
	for _, p := range s.ftsPaths {
		if p == path {
			return nil
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin create index: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT OR IGNORE INTO fts_indexes (path) VALUES (?)", path); err != nil {
		return fmt.Errorf("record fts index: %w", err)
	}
	if _, err := tx.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS " + s.ftsTableIdent(path) + " USING fts4(text)"); err != nil {
		return fmt.Errorf("create fts table for %q: %w", path, err)
	}

	// Backfill from existing documents.
	rows, err := tx.Query("SELECT sequence, body FROM " + s.table)
	if err != nil {
		return fmt.Errorf("scan documents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var seq int64
		var body []byte
		if err := rows.Scan(&seq, &body); err != nil {
			return fmt.Errorf("scan document: %w", err)
		}
		if err := s.indexOne(tx, path, seq, body); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create index: %w", err)
	}
	s.ftsPaths = append(s.ftsPaths, path)
	return nil
}

// FTSIndexes returns the indexed property paths in creation order.
func (s *Store) FTSIndexes() []string {
	out := make([]string, len(s.ftsPaths))
	copy(out, s.ftsPaths)
	return out
}

// loadFTSIndexes reloads the index registry on Open and makes sure the
// virtual tables exist.
func (s *Store) loadFTSIndexes() error {
	rows, err := s.db.Query("SELECT path FROM fts_indexes ORDER BY rowid")
	if err != nil {
		return fmt.Errorf("load fts indexes: %w", err)
	}
	defer rows.Close()

	s.ftsPaths = nil
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return fmt.Errorf("load fts indexes: %w", err)
		}
		s.ftsPaths = append(s.ftsPaths, path)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load fts indexes: %w", err)
	}

	for _, path := range s.ftsPaths {
		if _, err := s.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS " + s.ftsTableIdent(path) + " USING fts4(text)"); err != nil {
			return fmt.Errorf("restore fts table for %q: %w", path, err)
		}
	}
	return nil
}

// indexDocument refreshes every FTS index for a newly written revision.
func (s *Store) indexDocument(tx *sql.Tx, seq int64, body []byte) error {
	for _, path := range s.ftsPaths {
		if err := s.indexOne(tx, path, seq, body); err != nil {
			return err
		}
	}
	return nil
}

// indexOne writes the text at path into that path's FTS table. Non-
// string and missing values are simply not indexed.
func (s *Store) indexOne(tx *sql.Tx, path string, seq int64, body []byte) error {
	doc, err := decodeBody(body)
	if err != nil {
		return err
	}
	v, ok := evalPath(doc, path)
	if !ok {
		return nil
	}
	text, ok := v.(string)
	if !ok {
		return nil
	}

	text = norm.NFC.String(text)
	if _, err := tx.Exec("INSERT INTO "+s.ftsTableIdent(path)+" (rowid, text) VALUES (?, ?)", seq, text); err != nil {
		return fmt.Errorf("index %q for sequence %d: %w", path, seq, err)
	}
	return nil
}

// removeFTSRows drops the FTS rows of a retired sequence.
func (s *Store) removeFTSRows(tx *sql.Tx, seq int64) error {
	for _, path := range s.ftsPaths {
		if _, err := tx.Exec("DELETE FROM "+s.ftsTableIdent(path)+" WHERE rowid = ?", seq); err != nil {
			return fmt.Errorf("unindex %q for sequence %d: %w", path, seq, err)
		}
	}
	return nil
}
