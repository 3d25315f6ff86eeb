package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/docql/docql/internal/expr"
)

// ErrInvalidQuery is the single error kind raised for any input that
// violates the query grammar. Errors returned by the compiler wrap it;
// test with errors.Is.
var ErrInvalidQuery = errors.New("invalid query")

// invalidf builds a grammar error wrapping ErrInvalidQuery.
func invalidf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidQuery)...)
}

// Compiler translates one where/sort expression pair into SQL clause
// bodies. Single-shot: a second Parse on the same instance is an error,
// so stale buffer contents can never leak into another query.
type Compiler struct {
	tableName  string
	jsonColumn string

	where strings.Builder
	sort  strings.Builder

	// propertyPath is the implicit path prefix while descending into
	// sub-property predicates. Restored on ascent (stack discipline).
	propertyPath string

	// ftsProperties records FTS-indexed property paths in first-use
	// order. Index i holds the path joined as FTS<i+1>.
	ftsProperties []string

	parsed bool
}

// NewCompiler returns a Compiler for the given documents table and JSON
// column. Both names are inlined verbatim into the generated SQL.
func NewCompiler(tableName, jsonColumn string) *Compiler {
	return &Compiler{tableName: tableName, jsonColumn: jsonColumn}
}

// TableName returns the documents table the compiler was built for.
func (c *Compiler) TableName() string { return c.tableName }

// Parse compiles the where and sort expressions. Either may be nil:
// a nil where produces an empty WHERE clause, a nil sort defaults the
// ORDER BY clause to the document key.
func (c *Compiler) Parse(where, sort expr.Value) error {
	if c.parsed {
		return fmt.Errorf("querysql: Compiler is single-shot; create a new one per query")
	}
	c.parsed = true

	if where != nil {
		if err := c.parsePredicate(where); err != nil {
			return err
		}
	}
	return c.parseSort(sort)
}

// ParseJSON decodes the JSON-encoded expressions and compiles them.
// Empty slices stand for absent expressions. Decoding errors propagate
// unchanged.
func (c *Compiler) ParseJSON(whereJSON, sortJSON []byte) error {
	var where, sort expr.Value

	if len(whereJSON) > 0 {
		v, err := expr.Decode(whereJSON)
		if err != nil {
			return err
		}
		where = v
	}
	if len(sortJSON) > 0 {
		v, err := expr.Decode(sortJSON)
		if err != nil {
			return err
		}
		sort = v
	}
	return c.Parse(where, sort)
}

// WhereClause returns the generated WHERE clause body, without the
// leading WHERE keyword. Empty when no where-expression was given.
func (c *Compiler) WhereClause() string { return c.where.String() }

// OrderByClause returns the generated ORDER BY clause body, without the
// leading ORDER BY keywords.
func (c *Compiler) OrderByClause() string { return c.sort.String() }

// parsePredicate compiles a boolean-valued expression, usually the top
// level of a query. The expression must be an object; keys without a
// leading '$' are property terms joined by implicit AND.
func (c *Compiler) parsePredicate(q expr.Value) error {
	query, ok := q.(expr.Object)
	if !ok {
		return invalidf("predicate must be an object, got %T", q)
	}

	key, val, special := query.Special()
	if !special {
		d := newDelimiter(&c.where, " AND ")
		for _, f := range query {
			d.next()
			if err := c.parseTerm(f.Key, f.Val); err != nil {
				return err
			}
		}
		return nil
	}

	switch key {
	case "$and":
		return c.writeBooleanExpr(val, " AND ")
	case "$or":
		return c.writeBooleanExpr(val, " OR ")
	case "$nor":
		c.where.WriteString("NOT (")
		if err := c.writeBooleanExpr(val, " OR "); err != nil {
			return err
		}
		c.where.WriteString(")")
		return nil
	case "$not":
		terms, ok := val.(expr.Array)
		if !ok {
			return invalidf("$not requires an array")
		}
		if len(terms) != 1 {
			return invalidf("$not requires exactly one sub-predicate, got %d", len(terms))
		}
		c.where.WriteString("NOT (")
		if err := c.parsePredicate(terms[0]); err != nil {
			return err
		}
		c.where.WriteString(")")
		return nil
	default:
		return invalidf("unknown operator %q in predicate", key)
	}
}

// writeBooleanExpr emits a series of sub-predicates separated by op.
func (c *Compiler) writeBooleanExpr(terms expr.Value, op string) error {
	arr, ok := terms.(expr.Array)
	if !ok {
		return invalidf("boolean connective requires an array of predicates, got %T", terms)
	}
	d := newDelimiter(&c.where, op)
	for _, term := range arr {
		d.next()
		if err := c.parsePredicate(term); err != nil {
			return err
		}
	}
	return nil
}

// parseTerm compiles one key/value mapping like `"x": {"$gt": 5}`.
func (c *Compiler) parseTerm(key string, value expr.Value) error {
	op, payload, isOp, err := resolveOperator(value)
	if err != nil {
		return err
	}
	if !isOp {
		// Plain object value: a nested predicate scoped under this property.
		return c.parseSubPropertyTerm(key, value.(expr.Object))
	}

	switch op.cat {
	case catRelational:
		if err := c.writePropertyGetter("fl_value", key); err != nil {
			return err
		}
		c.where.WriteString(op.sqlOp)
		return c.writeLiteral(payload)

	case catType:
		code, err := typeCodeOf(payload)
		if err != nil {
			return err
		}
		if err := c.writePropertyGetter("fl_type", key); err != nil {
			return err
		}
		fmt.Fprintf(&c.where, "=%d", code)
		return nil

	case catExists:
		b, ok := payload.(expr.Bool)
		if !ok {
			return invalidf("$exists requires a boolean, got %T", payload)
		}
		if !bool(b) {
			c.where.WriteString("NOT ")
		}
		return c.writePropertyGetter("fl_exists", key)

	case catMembership:
		arr, ok := payload.(expr.Array)
		if !ok {
			return invalidf("%s requires an array, got %T", op.name, payload)
		}
		if err := c.writePropertyGetter("fl_value", key); err != nil {
			return err
		}
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
		if err := c.writePropertyGetter("fl_count", key); err != nil {
			return err
		}
		c.where.WriteString("=")
		return c.writeLiteral(payload)

	case catContainsAll, catContainsAny:
		arr, ok := payload.(expr.Array)
		if !ok {
			return invalidf("%s requires an array, got %T", op.name, payload)
		}
		c.writePropertyGetterLeftOpen("fl_contains", key)
		if op.cat == catContainsAll {
			c.where.WriteString(", 1")
		} else {
			c.where.WriteString(", 0")
		}
		for _, elem := range arr {
			c.where.WriteString(", ")
			if err := c.writeLiteral(elem); err != nil {
				return err
			}
		}
		c.where.WriteString(")")
		return nil

	case catElemMatch:
		return c.parseElemMatch(key, payload)

	case catFTSMatch:
		return c.parseFTSMatch(key, payload)

	default:
		return invalidf("unhandled operator category for %s", op.name)
	}
}

// parseSubPropertyTerm compiles a nested predicate scoped under a
// property. The path prefix is restored on every exit path, so a failed
// sub-predicate cannot corrupt it.
func (c *Compiler) parseSubPropertyTerm(property string, value expr.Object) error {
	saved := c.propertyPath
	defer func() { c.propertyPath = saved }()
	c.propertyPath = appendPaths(c.propertyPath, property)

	c.where.WriteString("(")
	if err := c.parsePredicate(value); err != nil {
		return err
	}
	c.where.WriteString(")")
	return nil
}

// writePropertyGetter emits a helper-function call over the JSON column
// and the full path of property, closing the parenthesis.
func (c *Compiler) writePropertyGetter(fn, property string) error {
	return writePropertyGetter(&c.where, fn, c.jsonColumn, c.propertyPath, property)
}

// writePropertyGetterLeftOpen emits the same call without the trailing
// ")", for helpers that take extra arguments (fl_contains).
func (c *Compiler) writePropertyGetterLeftOpen(fn, property string) {
	writePropertyGetterLeftOpen(&c.where, fn, c.jsonColumn, c.propertyPath, property)
}

// writePropertyGetter emits fn(jsonColumn, '<path>') into buf. The two
// reserved synthetic properties _id and _sequence map to the key and
// sequence columns of the documents table, and only make sense with
// fl_value.
func writePropertyGetter(buf *strings.Builder, fn, jsonColumn, pathPrefix, property string) error {
	switch property {
	case "_id":
		if fn != "fl_value" {
			return invalidf("reserved property _id cannot be used with %s", fn)
		}
		buf.WriteString("key")
		return nil
	case "_sequence":
		if fn != "fl_value" {
			return invalidf("reserved property _sequence cannot be used with %s", fn)
		}
		buf.WriteString("sequence")
		return nil
	}
	writePropertyGetterLeftOpen(buf, fn, jsonColumn, pathPrefix, property)
	buf.WriteString(")")
	return nil
}

func writePropertyGetterLeftOpen(buf *strings.Builder, fn, jsonColumn, pathPrefix, property string) {
	buf.WriteString(fn)
	buf.WriteString("(")
	buf.WriteString(jsonColumn)
	buf.WriteString(", ")
	writeSQLString(buf, appendPaths(pathPrefix, property))
}
