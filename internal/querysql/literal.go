package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docql/docql/internal/expr"
)

// delimiter writes its separator on every call to next but the first.
type delimiter struct {
	buf   *strings.Builder
	sep   string
	first bool
}

func newDelimiter(buf *strings.Builder, sep string) *delimiter {
	return &delimiter{buf: buf, sep: sep, first: true}
}

func (d *delimiter) next() {
	if d.first {
		d.first = false
		return
	}
	d.buf.WriteString(d.sep)
}

func (c *Compiler) writeLiteral(v expr.Value) error {
	return writeLiteral(&c.where, v)
}

// writeLiteral emits an expression node as a SQL literal.
//
// A single-element array is placeholder sugar: an integer element n
// becomes the named parameter :_n, a non-empty string element s becomes
// :_s. Placeholder identifier strings are trusted; they are not
// validated beyond non-emptiness.
func writeLiteral(buf *strings.Builder, v expr.Value) error {
	switch lit := v.(type) {
	case expr.Int:
		buf.WriteString(strconv.FormatInt(int64(lit), 10))

	case expr.Float:
		buf.WriteString(strconv.FormatFloat(float64(lit), 'g', -1, 64))

	case expr.Bool:
		// SQL has no true/false
		if lit {
			buf.WriteString("1")
		} else {
			buf.WriteString("0")
		}

	case expr.String:
		writeSQLString(buf, string(lit))

	case expr.Array:
		if len(lit) != 1 {
			return invalidf("placeholder must be a one-element array, got %d elements", len(lit))
		}
		switch ident := lit[0].(type) {
		case expr.Int:
			fmt.Fprintf(buf, ":_%d", int64(ident))
		case expr.String:
			if ident == "" {
				return invalidf("placeholder name must not be empty")
			}
			buf.WriteString(":_")
			buf.WriteString(string(ident))
		default:
			return invalidf("placeholder must name an integer or string parameter, got %T", lit[0])
		}

	default:
		return invalidf("%T cannot appear as a SQL literal", v)
	}
	return nil
}

// writeSQLString emits str as a quoted SQL string, doubling embedded
// apostrophes. Fast path writes the bytes verbatim when there is
// nothing to escape.
func writeSQLString(buf *strings.Builder, str string) {
	buf.WriteByte('\'')
	if strings.IndexByte(str, '\'') < 0 {
		buf.WriteString(str)
	} else {
		for i := 0; i < len(str); i++ {
			if str[i] == '\'' {
				buf.WriteString("''")
			} else {
				buf.WriteByte(str[i])
			}
		}
	}
	buf.WriteByte('\'')
}
