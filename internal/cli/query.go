package cli

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docql/docql/internal/manifest"
	"github.com/docql/docql/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Args      []string // name=value pairs for query placeholders
	CreateFTS bool
}

// QueryResult holds the keys a query matched.
type QueryResult struct {
	Query string   `json:"query"`
	Keys  []string `json:"keys"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <db-path> <manifest> <query-name>",
		Short: "Run a named manifest query against a document store",
		Long: `Compile one named query from a manifest and execute it against the
SQLite document store at db-path, printing the keys of matching
documents in result order.

Placeholder parameters ([n] or ["name"] in the manifest) are supplied
with repeated --arg flags, e.g. --arg min=21.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], args[1], args[2], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "query parameter as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.CreateFTS, "create-fts", false, "create missing FTS indexes the query needs")

	return cmd
}

func runQuery(opts *QueryOptions, dbPath, manifestPath, queryName string, cmd *cobra.Command) error {
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
	if m.Column != store.JSONColumn {
		return outputErrors(formatter, "query failed", []error{
			fmt.Errorf("store only serves column %q, manifest declares %q", store.JSONColumn, m.Column),
		})
	}

	var query *manifest.Query
	for i := range m.Queries {
		if m.Queries[i].Name == queryName {
			query = &m.Queries[i]
			break
		}
	}
	if query == nil {
		return outputErrors(formatter, "query failed", []error{
			fmt.Errorf("manifest has no query named %q", queryName),
		})
	}

	c, err := m.CompileQuery(*query)
	if err != nil {
		return outputErrors(formatter, "compilation failed", []error{err})
	}

	namedArgs, err := parseQueryArgs(opts.Args)
	if err != nil {
		return outputErrors(formatter, "query failed", []error{err})
	}

	st, err := store.Open(dbPath, store.WithTable(m.Table))
	if err != nil {
		return outputErrors(formatter, "opening store failed", []error{err})
	}
	defer st.Close()

	if opts.CreateFTS {
		for _, name := range c.FTSTableNames() {
			path, err := ftsPathOf(name, m.Table)
			if err != nil {
				return outputErrors(formatter, "query failed", []error{err})
			}
			formatter.VerboseLog("Ensuring FTS index on %s", path)
			if err := st.CreateFTSIndex(path); err != nil {
				return outputErrors(formatter, "creating FTS index failed", []error{err})
			}
		}
	}

	keys, err := st.Query(cmd.Context(), c, namedArgs...)
	if err != nil {
		return outputErrors(formatter, "query failed", []error{err})
	}

	result := &QueryResult{Query: queryName, Keys: keys}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %d document(s)\n", len(keys))
	for _, key := range keys {
		fmt.Fprintln(formatter.Writer, key)
	}
	return nil
}

// parseQueryArgs converts name=value flags into named SQL parameters.
// Values parse as integers, then floats, then fall back to strings.
func parseQueryArgs(pairs []string) ([]any, error) {
	args := make([]any, 0, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("bad --arg %q: expected name=value", pair)
		}
		var v any = value
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			v = i
		} else if f, err := strconv.ParseFloat(value, 64); err == nil {
			v = f
		}
		args = append(args, sql.Named("_"+name, v))
	}
	return args, nil
}

// ftsPathOf recovers the property path from a quoted FTS table name
// like "kv_default::bio".
func ftsPathOf(quotedName, table string) (string, error) {
	name := strings.Trim(quotedName, `"`)
	path, ok := strings.CutPrefix(name, table+"::")
	if !ok {
		return "", fmt.Errorf("unexpected FTS table name %s", quotedName)
	}
	return path, nil
}
