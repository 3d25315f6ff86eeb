package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docql/docql/internal/manifest"
	"github.com/docql/docql/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledQuery is the SQL produced for one named query.
type CompiledQuery struct {
	Name      string   `json:"name"`
	SQL       string   `json:"sql"`
	From      string   `json:"from"`
	Where     string   `json:"where,omitempty"`
	OrderBy   string   `json:"order_by"`
	FTSTables []string `json:"fts_tables,omitempty"`
}

// CompilationResult holds every compiled query of a manifest.
type CompilationResult struct {
	Table   string          `json:"table"`
	Column  string          `json:"column"`
	Queries []CompiledQuery `json:"queries"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <manifest>",
		Short: "Compile a query manifest to SQL",
		Long: `Compile the queries of a CUE manifest into SQL statements.

The manifest declares the documents table, the JSON column, and a set
of named queries. Each query compiles to a SELECT over the table with
generated WHERE and ORDER BY clauses.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, manifestPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	m, loadErrs := manifest.Load(manifestPath)
	if len(loadErrs) > 0 {
		return outputErrors(formatter, "loading manifest failed", loadErrs)
	}

	formatter.VerboseLog("Loaded %d query(ies) from %s", len(m.Queries), manifestPath)

	result := &CompilationResult{Table: m.Table, Column: m.Column}
	var compileErrs []error
	for _, q := range m.Queries {
		formatter.VerboseLog("Compiling query: %s", q.Name)
		c, err := m.CompileQuery(q)
		if err != nil {
			compileErrs = append(compileErrs, err)
			continue
		}
		result.Queries = append(result.Queries, CompiledQuery{
			Name:      q.Name,
			SQL:       buildSelect(m.Table, c),
			From:      c.FromClause(),
			Where:     c.WhereClause(),
			OrderBy:   c.OrderByClause(),
			FTSTables: c.FTSTableNames(),
		})
	}
	if len(compileErrs) > 0 {
		return outputErrors(formatter, "compilation failed", compileErrs)
	}

	if opts.Output != "" {
		if err := writeResultFile(result, opts.Output); err != nil {
			return outputErrors(formatter, "writing output failed", []error{err})
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// buildSelect splices the compiled clauses into a full key-selecting
// statement.
func buildSelect(table string, c *querysql.Compiler) string {
	var stmt strings.Builder
	stmt.WriteString("SELECT ")
	stmt.WriteString(table)
	stmt.WriteString(".key FROM ")
	stmt.WriteString(c.FromClause())
	if where := c.WhereClause(); where != "" {
		stmt.WriteString(" WHERE ")
		stmt.WriteString(where)
	}
	stmt.WriteString(" ORDER BY ")
	stmt.WriteString(c.OrderByClause())
	return stmt.String()
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d query(ies) for table %s\n\n", len(result.Queries), result.Table)
	for _, q := range result.Queries {
		fmt.Fprintf(formatter.Writer, "%s:\n  %s\n", q.Name, q.SQL)
		for _, fts := range q.FTSTables {
			fmt.Fprintf(formatter.Writer, "  requires FTS index %s\n", fts)
		}
	}
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote compiled queries to %s\n", outputFile)
	}
	return nil
}

// outputErrors renders errs and returns an ExitError carrying the
// command-error exit code.
func outputErrors(formatter *OutputFormatter, summary string, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		cliErrors[i] = toCLIError(err)
	}
	_ = formatter.Errors(cliErrors)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s with %d error(s)", summary, len(errs)))
}

func toCLIError(err error) CLIError {
	var loadErr *manifest.LoadError
	if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
		return CLIError{
			Message: loadErr.Message,
			Position: fmt.Sprintf("%s:%d:%d",
				loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column()),
		}
	}
	return CLIError{Message: err.Error()}
}

func writeResultFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling queries: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
