package harness

import (
	"fmt"
	"strings"

	"github.com/docql/docql/internal/querysql"
	"github.com/docql/docql/internal/store"
)

// Result captures every SQL fragment a compiled scenario produced.
type Result struct {
	Where     string
	OrderBy   string
	From      string
	FTSTables []string
}

// Run compiles a scenario's query and returns the generated SQL
// fragments. Scenarios marked want_error return a nil Result and the
// compiler's rejection instead.
func Run(scenario *Scenario) (*Result, error) {
	where, err := exprFromNode(&scenario.Where)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: where: %w", scenario.Name, err)
	}
	sort, err := exprFromNode(&scenario.Sort)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: sort: %w", scenario.Name, err)
	}

	table := scenario.Table
	if table == "" {
		table = store.DefaultTable
	}
	column := scenario.Column
	if column == "" {
		column = store.JSONColumn
	}

	c := querysql.NewCompiler(table, column)
	if err := c.Parse(where, sort); err != nil {
		return nil, err
	}

	return &Result{
		Where:     c.WhereClause(),
		OrderBy:   c.OrderByClause(),
		From:      c.FromClause(),
		FTSTables: c.FTSTableNames(),
	}, nil
}

// Snapshot renders the result as stable, line-oriented text for golden
// file comparison.
func (r *Result) Snapshot(scenarioName string) []byte {
	var b strings.Builder
	b.WriteString("scenario: ")
	b.WriteString(scenarioName)
	b.WriteByte('\n')
	b.WriteString("from: ")
	b.WriteString(r.From)
	b.WriteByte('\n')
	b.WriteString("where: ")
	b.WriteString(r.Where)
	b.WriteByte('\n')
	b.WriteString("order by: ")
	b.WriteString(r.OrderBy)
	b.WriteByte('\n')
	for _, name := range r.FTSTables {
		b.WriteString("fts table: ")
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
