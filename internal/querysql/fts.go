package querysql

import (
	"fmt"
	"strings"

	"github.com/docql/docql/internal/expr"
)

// ftsPropertyIndex returns the 1-based FTS table index assigned to
// path, or 0 if the path has not been recorded.
func (c *Compiler) ftsPropertyIndex(path string) int {
	for i, p := range c.ftsProperties {
		if p == path {
			return i + 1
		}
	}
	return 0
}

// parseFTSMatch compiles a $match predicate. The FTS index for the
// property is a separate virtual table joined against the documents
// table by rowid; the first $match on a path assigns its table number,
// and every later reference reuses it.
func (c *Compiler) parseFTSMatch(property string, match expr.Value) error {
	path := appendPaths(c.propertyPath, property)
	tableNo := c.ftsPropertyIndex(path)
	if tableNo == 0 {
		c.ftsProperties = append(c.ftsProperties, path)
		tableNo = len(c.ftsProperties)
	}

	fmt.Fprintf(&c.where, "(FTS%d.text MATCH ", tableNo)
	if err := c.writeLiteral(match); err != nil {
		return err
	}
	fmt.Fprintf(&c.where, " AND FTS%d.rowid = %s.sequence)", tableNo, c.tableName)
	return nil
}

// FromClause returns the FROM clause body: the documents table followed
// by the FTS virtual tables aliased FTS1, FTS2, ... in first-use order.
func (c *Compiler) FromClause() string {
	var from strings.Builder
	from.WriteString(c.tableName)
	for i, path := range c.ftsProperties {
		fmt.Fprintf(&from, ", \"%s::%s\" AS FTS%d", c.tableName, path, i+1)
	}
	return from.String()
}

// FTSTableNames returns the quoted names of the FTS virtual tables the
// generated SQL joins against, in the order they were assigned. The
// host is responsible for creating or attaching them.
func (c *Compiler) FTSTableNames() []string {
	names := make([]string, len(c.ftsProperties))
	for i, path := range c.ftsProperties {
		names[i] = `"` + c.tableName + "::" + path + `"`
	}
	return names
}
