package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			RunWithGolden(t, scenario)
		})
	}
}

func TestRun_EmptyQuery(t *testing.T) {
	result, err := Run(&Scenario{Name: "empty", Description: "no predicate"})
	require.NoError(t, err)

	assert.Empty(t, result.Where)
	assert.Equal(t, "key", result.OrderBy)
	assert.Equal(t, "kv_default", result.From)
	assert.Empty(t, result.FTSTables)
}

func TestSnapshot(t *testing.T) {
	r := &Result{
		Where:     "fl_value(body, 'a') = 1",
		OrderBy:   "key",
		From:      `kv_default, "kv_default::bio" AS FTS1`,
		FTSTables: []string{`"kv_default::bio"`},
	}

	want := "scenario: demo\n" +
		"from: kv_default, \"kv_default::bio\" AS FTS1\n" +
		"where: fl_value(body, 'a') = 1\n" +
		"order by: key\n" +
		"fts table: \"kv_default::bio\"\n"
	assert.Equal(t, want, string(r.Snapshot("demo")))
}
