package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSort_Terms(t *testing.T) {
	testCases := []struct {
		name string
		sort string
		want string
	}{
		{name: "default without sort", sort: "", want: "key"},
		{name: "single property", sort: `"name"`, want: `fl_value(body, 'name')`},
		{name: "explicit ascending", sort: `"+name"`, want: `fl_value(body, 'name')`},
		{name: "descending", sort: `"-name"`, want: `fl_value(body, 'name') DESC`},
		{name: "reserved id", sort: `"_id"`, want: "key"},
		{name: "reserved sequence descending", sort: `"-_sequence"`, want: "sequence DESC"},
		{name: "dollar path", sort: `"$.date"`, want: `fl_value(body, 'date')`},
		{
			name: "array of terms",
			sort: `["-age", "name", "_id"]`,
			want: `fl_value(body, 'age') DESC, fl_value(body, 'name'), key`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := mustCompile(t, "", tc.sort)
			assert.Equal(t, tc.want, c.OrderByClause())
		})
	}
}

func TestSort_FTSRankTerm(t *testing.T) {
	// A sort term naming an FTS-matched property orders by rank. The
	// term must match the recorded path exactly, before any sign prefix
	// handling.
	c := mustCompile(t, `{"bio": {"$match": "go"}}`, `"bio"`)
	assert.Equal(t, `rank(matchinfo("kv_default::bio")) DESC`, c.OrderByClause())
}

func TestSort_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		sort string
	}{
		{name: "number", sort: `5`},
		{name: "object", sort: `{"name": 1}`},
		{name: "empty string", sort: `""`},
		{name: "array with number", sort: `["name", 3]`},
		{name: "json null", sort: `null`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCompiler("kv_default", "body")
			err := c.ParseJSON(nil, []byte(tc.sort))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}
