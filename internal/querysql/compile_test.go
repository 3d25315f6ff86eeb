package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docql/docql/internal/expr"
)

// mustCompile compiles a where/sort pair given as JSON against the
// kv_default/body convention used throughout these tests.
func mustCompile(t *testing.T, whereJSON, sortJSON string) *Compiler {
	t.Helper()
	c := NewCompiler("kv_default", "body")
	require.NoError(t, c.ParseJSON([]byte(whereJSON), []byte(sortJSON)))
	return c
}

func TestCompile_WhereClauses(t *testing.T) {
	testCases := []struct {
		name  string
		where string
		want  string
	}{
		{
			name:  "single equality",
			where: `{"name": "Bob"}`,
			want:  `fl_value(body, 'name') = 'Bob'`,
		},
		{
			name:  "implicit AND",
			where: `{"age": {"$gte": 21}, "active": true}`,
			want:  `fl_value(body, 'age') >= 21 AND fl_value(body, 'active') = 1`,
		},
		{
			name:  "or connective",
			where: `{"$or": [{"x": {"$lt": 0}}, {"x": {"$gt": 100}}]}`,
			want:  `fl_value(body, 'x') < 0 OR fl_value(body, 'x') > 100`,
		},
		{
			name:  "nor connective",
			where: `{"$nor": [{"a": 1}, {"b": 2}]}`,
			want:  `NOT (fl_value(body, 'a') = 1 OR fl_value(body, 'b') = 2)`,
		},
		{
			name:  "not connective",
			where: `{"$not": [{"a": 1}]}`,
			want:  `NOT (fl_value(body, 'a') = 1)`,
		},
		{
			name:  "and connective",
			where: `{"$and": [{"a": 1}, {"b": 2}]}`,
			want:  `fl_value(body, 'a') = 1 AND fl_value(body, 'b') = 2`,
		},
		{
			name:  "not equal",
			where: `{"a": {"$ne": 3}}`,
			want:  `fl_value(body, 'a') <> 3`,
		},
		{
			name:  "like",
			where: `{"name": {"$like": "Bo%"}}`,
			want:  `fl_value(body, 'name') LIKE 'Bo%'`,
		},
		{
			name:  "lte alias le",
			where: `{"a": {"$le": 10}}`,
			want:  `fl_value(body, 'a') <= 10`,
		},
		{
			name:  "float literal",
			where: `{"a": {"$gt": 2.5}}`,
			want:  `fl_value(body, 'a') > 2.5`,
		},
		{
			name:  "type test",
			where: `{"a": {"$type": "string"}}`,
			want:  `fl_type(body, 'a')=3`,
		},
		{
			name:  "exists true",
			where: `{"a": {"$exists": true}}`,
			want:  `fl_exists(body, 'a')`,
		},
		{
			name:  "exists false",
			where: `{"a": {"$exists": false}}`,
			want:  `NOT fl_exists(body, 'a')`,
		},
		{
			name:  "membership in",
			where: `{"x": {"$in": [1, 2, "three"]}}`,
			want:  `fl_value(body, 'x') IN (1, 2, 'three')`,
		},
		{
			name:  "membership nin",
			where: `{"x": {"$nin": [1, 2]}}`,
			want:  `fl_value(body, 'x') NOT IN (1, 2)`,
		},
		{
			name:  "size",
			where: `{"tags": {"$size": 3}}`,
			want:  `fl_count(body, 'tags')=3`,
		},
		{
			name:  "contains all",
			where: `{"tags": {"$all": ["red", "green"]}}`,
			want:  `fl_contains(body, 'tags', 1, 'red', 'green')`,
		},
		{
			name:  "contains any",
			where: `{"tags": {"$any": ["red", "green"]}}`,
			want:  `fl_contains(body, 'tags', 0, 'red', 'green')`,
		},
		{
			name:  "apostrophes doubled",
			where: `{"name": "O'Brien"}`,
			want:  `fl_value(body, 'name') = 'O''Brien'`,
		},
		{
			name:  "integer placeholder",
			where: `{"x": {"$eq": [7]}}`,
			want:  `fl_value(body, 'x') = :_7`,
		},
		{
			name:  "named placeholder",
			where: `{"x": ["limit"]}`,
			want:  `fl_value(body, 'x') = :_limit`,
		},
		{
			name:  "reserved id property",
			where: `{"_id": "doc1"}`,
			want:  `key = 'doc1'`,
		},
		{
			name:  "reserved sequence property",
			where: `{"_sequence": {"$gt": 100}}`,
			want:  `sequence > 100`,
		},
		{
			name:  "sub-property predicate",
			where: `{"address": {"city": "Paris", "zip": {"$exists": true}}}`,
			want:  `(fl_value(body, 'address.city') = 'Paris' AND fl_exists(body, 'address.zip'))`,
		},
		{
			name:  "deep sub-property nesting",
			where: `{"a": {"b": {"c": 1}}}`,
			want:  `((fl_value(body, 'a.b.c') = 1))`,
		},
		{
			name:  "path prefix restored between siblings",
			where: `{"a": {"x": 1}, "b": {"y": 2}}`,
			want:  `(fl_value(body, 'a.x') = 1) AND (fl_value(body, 'b.y') = 2)`,
		},
		{
			name:  "operator object keeps first special key only",
			where: `{"a": {"$gt": 5, "$lt": 10}}`,
			want:  `fl_value(body, 'a') > 5`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := mustCompile(t, tc.where, "")
			assert.Equal(t, tc.want, c.WhereClause())
			assert.Equal(t, "key", c.OrderByClause())
			assert.Equal(t, "kv_default", c.FromClause())
			assert.Empty(t, c.FTSTableNames())
		})
	}
}

func TestCompile_InvalidQueries(t *testing.T) {
	testCases := []struct {
		name  string
		where string
	}{
		{name: "predicate is not an object", where: `5`},
		{name: "predicate is an array", where: `[{"a": 1}]`},
		{name: "unknown operator", where: `{"a": {"$regex": "x"}}`},
		{name: "unknown connective", where: `{"$xor": [{"a": 1}]}`},
		{name: "and without array", where: `{"$and": {"a": 1}}`},
		{name: "or without array", where: `{"$or": 5}`},
		{name: "not with two sub-predicates", where: `{"$not": [{"a": 1}, {"b": 2}]}`},
		{name: "not without array", where: `{"$not": {"a": 1}}`},
		{name: "unknown type name", where: `{"a": {"$type": "decimal"}}`},
		{name: "type without string", where: `{"a": {"$type": 3}}`},
		{name: "exists without boolean", where: `{"a": {"$exists": 1}}`},
		{name: "in without array", where: `{"x": {"$in": 5}}`},
		{name: "all without array", where: `{"tags": {"$all": "red"}}`},
		{name: "empty placeholder array", where: `{"x": {"$eq": []}}`},
		{name: "two-element placeholder array", where: `{"x": {"$eq": [1, 2]}}`},
		{name: "placeholder with boolean element", where: `{"x": {"$eq": [true]}}`},
		{name: "placeholder with empty name", where: `{"x": {"$eq": [""]}}`},
		{name: "null literal", where: `{"x": {"$eq": null}}`},
		{name: "reserved id with non-value getter", where: `{"_id": {"$type": "string"}}`},
		{name: "reserved sequence with exists", where: `{"_sequence": {"$exists": true}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCompiler("kv_default", "body")
			err := c.ParseJSON([]byte(tc.where), nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestCompile_ImplicitAndMatchesExplicitAnd(t *testing.T) {
	implicit := mustCompile(t, `{"age": {"$gte": 21}, "active": true}`, "")
	explicit := mustCompile(t, `{"$and": [{"age": {"$gte": 21}}, {"active": true}]}`, "")
	assert.Equal(t, implicit.WhereClause(), explicit.WhereClause())
}

func TestCompile_Deterministic(t *testing.T) {
	const where = `{"age": {"$gte": 21}, "name": {"$like": "B%"}, "bio": {"$match": "go"}}`
	const sort = `["-age", "bio"]`

	first := mustCompile(t, where, sort)
	second := mustCompile(t, where, sort)

	assert.Equal(t, first.WhereClause(), second.WhereClause())
	assert.Equal(t, first.OrderByClause(), second.OrderByClause())
	assert.Equal(t, first.FromClause(), second.FromClause())
	assert.Equal(t, first.FTSTableNames(), second.FTSTableNames())
}

func TestCompile_SingleShot(t *testing.T) {
	c := mustCompile(t, `{"a": 1}`, "")
	err := c.Parse(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single-shot")
}

func TestCompile_NoWhereExpression(t *testing.T) {
	c := NewCompiler("kv_default", "body")
	require.NoError(t, c.Parse(nil, nil))
	assert.Empty(t, c.WhereClause())
	assert.Equal(t, "key", c.OrderByClause())
	assert.Equal(t, "kv_default", c.FromClause())
}

func TestCompile_ParseTreeDirectly(t *testing.T) {
	where := expr.Object{
		{Key: "age", Val: expr.Object{{Key: "$gte", Val: expr.Int(21)}}},
	}
	c := NewCompiler("kv_default", "body")
	require.NoError(t, c.Parse(where, expr.String("-age")))
	assert.Equal(t, `fl_value(body, 'age') >= 21`, c.WhereClause())
	assert.Equal(t, `fl_value(body, 'age') DESC`, c.OrderByClause())
}

func TestCompile_DecodeErrorsPropagate(t *testing.T) {
	c := NewCompiler("kv_default", "body")
	err := c.ParseJSON([]byte(`{"a": `), nil)
	require.Error(t, err)
	// Decoder errors are not query-grammar errors.
	assert.NotErrorIs(t, err, ErrInvalidQuery)
}

func TestCompile_CustomTableAndColumn(t *testing.T) {
	c := NewCompiler("docs", "payload")
	require.NoError(t, c.ParseJSON([]byte(`{"name": "Bob"}`), nil))
	assert.Equal(t, `fl_value(payload, 'name') = 'Bob'`, c.WhereClause())
	assert.Equal(t, "docs", c.FromClause())
}
