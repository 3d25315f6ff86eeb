package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// DefaultTable is the documents table name used unless WithTable is
// given. The schema template is written against it.
const DefaultTable = "kv_default"

// JSONColumn is the name of the document body column.
const JSONColumn = "body"

// ErrNotFound is returned by Get and Delete for an unknown key.
var ErrNotFound = errors.New("document not found")

func init() {
	sql.Register("sqlite3_docql", &sqlite3.SQLiteDriver{
		ConnectHook: registerFunctions,
	})
}

// Store provides durable document storage plus the SQL surface the
// query compiler's output expects.
type Store struct {
	db    *sql.DB
	table string

	// ftsPaths mirrors the fts_indexes table, in creation order.
	ftsPaths []string
}

// Option configures a Store before it opens.
type Option func(*Store)

// WithTable overrides the documents table name.
func WithTable(name string) Option {
	return func(s *Store) { s.table = name }
}

// Open creates or opens a document database at path (":memory:" works).
// The connection is configured with WAL mode and a single writer, the
// schema is applied idempotently, and existing FTS indexes are
// reloaded.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{table: DefaultTable}
	for _, o := range opts {
		o(s)
	}

	db, err := sql.Open("sqlite3_docql", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection also
	// keeps the registered functions and :memory: databases stable.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s.db = db
	if err := s.applyPragmas(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.loadFTSIndexes(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Table returns the documents table name.
func (s *Store) Table() string { return s.table }

// Put stores a JSON document under key, replacing any previous
// revision and bumping its sequence. An empty key is assigned a fresh
// UUID. Returns the key and the new sequence.
func (s *Store) Put(key string, body []byte) (string, int64, error) {
	if !json.Valid(body) {
		return "", 0, fmt.Errorf("document body is not valid JSON")
	}
	if key == "" {
		key = uuid.Must(uuid.NewV7()).String()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", 0, fmt.Errorf("begin put: %w", err)
	}
	defer tx.Rollback()

	// Replacing a document retires its old sequence entirely, FTS rows
	// included.
	var oldSeq int64
	err = tx.QueryRow("SELECT sequence FROM "+s.table+" WHERE key = ?", key).Scan(&oldSeq)
	switch {
	case err == nil:
		if _, err := tx.Exec("DELETE FROM "+s.table+" WHERE sequence = ?", oldSeq); err != nil {
			return "", 0, fmt.Errorf("replace document: %w", err)
		}
		if err := s.removeFTSRows(tx, oldSeq); err != nil {
			return "", 0, err
		}
	case errors.Is(err, sql.ErrNoRows):
		// New document
	default:
		return "", 0, fmt.Errorf("look up document: %w", err)
	}

	res, err := tx.Exec("INSERT INTO "+s.table+" (key, body) VALUES (?, ?)", key, body)
	if err != nil {
		return "", 0, fmt.Errorf("insert document: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return "", 0, fmt.Errorf("read sequence: %w", err)
	}

	if err := s.indexDocument(tx, seq, body); err != nil {
		return "", 0, err
	}
	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("commit put: %w", err)
	}
	return key, seq, nil
}

// Get returns the stored body for key.
func (s *Store) Get(key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRow("SELECT body FROM "+s.table+" WHERE key = ?", key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return body, nil
}

// Delete removes the document stored under key.
func (s *Store) Delete(key string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRow("SELECT sequence FROM "+s.table+" WHERE key = ?", key).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("look up document: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM "+s.table+" WHERE sequence = ?", seq); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := s.removeFTSRows(tx, seq); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) applySchema() error {
	schema := schemaSQL
	if s.table != DefaultTable {
		schema = strings.ReplaceAll(schema, DefaultTable, s.table)
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
