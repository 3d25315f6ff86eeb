package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleDoc = []byte(`{
	"name": "Bob",
	"age": 42,
	"active": true,
	"score": null,
	"tags": ["red", "green"],
	"address": {"city": "Paris", "lines": ["12 Rue X"]}
}`)

func TestFlValue(t *testing.T) {
	testCases := []struct {
		name string
		path string
		want any
	}{
		{name: "string", path: "name", want: "Bob"},
		{name: "number", path: "age", want: float64(42)},
		{name: "boolean becomes one", path: "active", want: int64(1)},
		{name: "null", path: "score", want: nil},
		{name: "missing", path: "nope", want: nil},
		{name: "nested", path: "address.city", want: "Paris"},
		{name: "array element", path: "tags[1]", want: "green"},
		{name: "nested array element", path: "address.lines[0]", want: "12 Rue X"},
		{name: "container as json", path: "tags", want: `["red","green"]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := flValue(sampleDoc, tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFlType(t *testing.T) {
	testCases := []struct {
		path string
		want any
	}{
		{path: "score", want: int64(typeNull)},
		{path: "active", want: int64(typeBoolean)},
		{path: "age", want: int64(typeNumber)},
		{path: "name", want: int64(typeString)},
		{path: "tags", want: int64(typeArray)},
		{path: "address", want: int64(typeObject)},
		{path: "missing", want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			got, err := flType(sampleDoc, tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFlExists(t *testing.T) {
	got, err := flExists(sampleDoc, "score")
	require.NoError(t, err)
	assert.True(t, got, "stored null still exists")

	got, err = flExists(sampleDoc, "missing")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestFlCount(t *testing.T) {
	got, err := flCount(sampleDoc, "tags")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	got, err = flCount(sampleDoc, "name")
	require.NoError(t, err)
	assert.Nil(t, got, "non-array counts as NULL")
}

func TestFlContains(t *testing.T) {
	all := func(vals ...any) bool {
		got, err := flContains(sampleDoc, "tags", true, vals...)
		require.NoError(t, err)
		return got
	}
	any := func(vals ...any) bool {
		got, err := flContains(sampleDoc, "tags", false, vals...)
		require.NoError(t, err)
		return got
	}

	assert.True(t, all("red", "green"))
	assert.False(t, all("red", "blue"))
	assert.True(t, any("blue", "green"))
	assert.False(t, any("blue", "yellow"))
	assert.True(t, all(), "all of nothing is vacuously true")
	assert.False(t, any(), "any of nothing is false")
}

func TestFlContains_NumericBridging(t *testing.T) {
	doc := []byte(`{"nums": [1, 2.5]}`)

	got, err := flContains(doc, "nums", true, int64(1))
	require.NoError(t, err)
	assert.True(t, got, "SQL integer matches JSON number")

	got, err = flContains(doc, "nums", true, 2.5)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestRank(t *testing.T) {
	// matchinfo "pcx" blob: 1 phrase, 1 column, 3 hits in this row.
	blob := []byte{
		1, 0, 0, 0, // phrases
		1, 0, 0, 0, // columns
		3, 0, 0, 0, // hits this row
		9, 0, 0, 0, // hits all rows
		2, 0, 0, 0, // docs with hits
	}
	score, err := rank(blob)
	require.NoError(t, err)
	assert.Equal(t, 3.0, score)
}

func TestRank_Malformed(t *testing.T) {
	_, err := rank([]byte{1, 2, 3})
	require.Error(t, err)
}
