package harness

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/docql/docql/internal/querysql"
)

// RunWithGolden compiles a scenario and compares its SQL snapshot
// against testdata/golden/{scenario.Name}.golden. Scenarios marked
// want_error instead assert that compilation is rejected.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if scenario.WantError {
		if err == nil {
			t.Fatalf("scenario %s: expected the query to be rejected, got:\n%s",
				scenario.Name, result.Snapshot(scenario.Name))
		}
		if !errors.Is(err, querysql.ErrInvalidQuery) {
			t.Fatalf("scenario %s: rejection is not an invalid-query error: %v", scenario.Name, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, result.Snapshot(scenario.Name))
}
