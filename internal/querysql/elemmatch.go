package querysql

import (
	"fmt"

	"github.com/docql/docql/internal/expr"
)

// parseElemMatch compiles a $elemMatch predicate against property. The
// array is exploded into rows by the table-valued fl_each helper and
// the inner predicate runs over its value/type columns:
//
//	EXISTS (SELECT 1 FROM fl_each(col, '<path>') WHERE <inner>)
func (c *Compiler) parseElemMatch(property string, match expr.Value) error {
	c.where.WriteString("EXISTS (SELECT 1 FROM ")
	if err := c.writePropertyGetter("fl_each", property); err != nil {
		return err
	}
	c.where.WriteString(" WHERE ")
	if err := c.parseElemMatchTerm("fl_each", match); err != nil {
		return err
	}
	c.where.WriteString(")")
	return nil
}

// parseElemMatchTerm compiles the inner predicate of a $elemMatch.
// Dispatch mirrors parseTerm but references the columns of the
// row-exploded table instead of property getters. Nested quantifiers,
// nested $elemMatch, $match and bare sub-property predicates are not
// supported here.
func (c *Compiler) parseElemMatchTerm(table string, value expr.Value) error {
	op, payload, isOp, err := resolveOperator(value)
	if err != nil {
		return err
	}
	if !isOp {
		return invalidf("sub-property predicates are not supported inside $elemMatch")
	}

	switch op.cat {
	case catRelational:
		c.where.WriteString(table)
		c.where.WriteString(".value")
		c.where.WriteString(op.sqlOp)
		return c.writeLiteral(payload)

	case catType:
		code, err := typeCodeOf(payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(&c.where, "%s.type=%d", table, code)
		return nil

	case catExists:
		b, ok := payload.(expr.Bool)
		if !ok {
			return invalidf("$exists requires a boolean, got %T", payload)
		}
		if !bool(b) {
			c.where.WriteString("NOT ")
		}
		fmt.Fprintf(&c.where, "(%s.type >= 0)", table)
		return nil

	case catMembership:
		arr, ok := payload.(expr.Array)
		if !ok {
			return invalidf("%s requires an array, got %T", op.name, payload)
		}
		c.where.WriteString(table)
		c.where.WriteString(".value")
		c.where.WriteString(op.sqlOp)
		c.where.WriteString("(")
		d := newDelimiter(&c.where, ", ")
		for _, elem := range arr {
			d.next()
			if err := c.writeLiteral(elem); err != nil {
				return err
			}
		}
		c.where.WriteString(")")
		return nil

	case catSize:
		fmt.Fprintf(&c.where, "count(%s.*)=", table)
		return c.writeLiteral(payload)

	case catContainsAll, catContainsAny:
		return invalidf("%s is not supported inside $elemMatch", op.name)

	case catElemMatch:
		return invalidf("nested $elemMatch is not supported")

	case catFTSMatch:
		return invalidf("$match is not supported inside $elemMatch")

	default:
		return invalidf("unhandled operator category for %s", op.name)
	}
}
