package querysql

import (
	"fmt"

	"github.com/docql/docql/internal/expr"
)

// parseSort compiles the sort expression into the ORDER BY buffer.
// nil defaults to ordering by document key; a string is one order term,
// an array of strings a comma-separated list.
func (c *Compiler) parseSort(v expr.Value) error {
	if v == nil {
		c.sort.WriteString("key")
		return nil
	}

	switch sortExpr := v.(type) {
	case expr.String:
		return c.writeOrderBy(string(sortExpr))

	case expr.Array:
		d := newDelimiter(&c.sort, ", ")
		for _, term := range sortExpr {
			s, ok := term.(expr.String)
			if !ok {
				return invalidf("sort terms must be strings, got %T", term)
			}
			d.next()
			if err := c.writeOrderBy(string(s)); err != nil {
				return err
			}
		}
		return nil

	default:
		return invalidf("sort expression must be a string or an array of strings, got %T", v)
	}
}

// writeOrderBy emits one order term.
//
// A term naming an FTS-matched property orders by search rank,
// descending. Otherwise a leading '-' or '+' selects the direction,
// the reserved names _id and _sequence map to the key and sequence
// columns, and anything else orders by the property's value.
func (c *Compiler) writeOrderBy(term string) error {
	if term == "" {
		return invalidf("sort term must not be empty")
	}

	if c.ftsPropertyIndex(term) > 0 {
		fmt.Fprintf(&c.sort, "rank(matchinfo(\"%s::%s\")) DESC", c.tableName, term)
		return nil
	}

	ascending := true
	switch term[0] {
	case '-':
		ascending = false
		term = term[1:]
	case '+':
		term = term[1:]
	}

	switch term {
	case "_id":
		c.sort.WriteString("key")
	case "_sequence":
		c.sort.WriteString("sequence")
	default:
		// Sort terms are always root-level paths; no prefix applies.
		if err := writePropertyGetter(&c.sort, "fl_value", c.jsonColumn, "", term); err != nil {
			return err
		}
	}
	if !ascending {
		c.sort.WriteString(" DESC")
	}
	return nil
}
