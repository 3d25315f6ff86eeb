package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/docql/docql/internal/querysql"
)

// NewCompiler returns a query compiler targeting this store's table
// and document column.
func (s *Store) NewCompiler() *querysql.Compiler {
	return querysql.NewCompiler(s.table, JSONColumn)
}

// Query executes a compiled query and returns the keys of matching
// documents in result order. Placeholder values (:_name) are supplied
// through args, e.g. sql.Named("_min", 21).
//
// The compiler must have been built for this store's table, and every
// FTS table it references must have been created with CreateFTSIndex.
func (s *Store) Query(ctx context.Context, c *querysql.Compiler, args ...any) ([]string, error) {
	if c.TableName() != s.table {
		return nil, fmt.Errorf("query compiled for table %s, store uses %s", c.TableName(), s.table)
	}
	for _, name := range c.FTSTableNames() {
		if !s.hasFTSTable(name) {
			return nil, fmt.Errorf("query references %s; create the FTS index first", name)
		}
	}

	var stmt strings.Builder
	stmt.WriteString("SELECT ")
	stmt.WriteString(s.table)
	stmt.WriteString(".key FROM ")
	stmt.WriteString(c.FromClause())
	if where := c.WhereClause(); where != "" {
		stmt.WriteString(" WHERE ")
		stmt.WriteString(where)
	}
	stmt.WriteString(" ORDER BY ")
	stmt.WriteString(c.OrderByClause())

	rows, err := s.db.QueryContext(ctx, stmt.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	return keys, nil
}

func (s *Store) hasFTSTable(quotedName string) bool {
	for _, path := range s.ftsPaths {
		if s.ftsTableIdent(path) == quotedName {
			return true
		}
	}
	return false
}
