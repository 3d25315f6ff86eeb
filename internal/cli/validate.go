package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docql/docql/internal/manifest"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Queries []string `json:"queries,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Validate a query manifest without emitting SQL",
		Long: `Validate a CUE manifest and the query grammar of every query in it.

Checks the manifest against the schema and compiles each query,
reporting every error found. Nothing is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, manifestPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	m, loadErrs := manifest.Load(manifestPath)
	if len(loadErrs) > 0 {
		return outputErrors(formatter, "validation failed", loadErrs)
	}

	result := &ValidationResult{Valid: true}
	var queryErrs []error
	for _, q := range m.Queries {
		formatter.VerboseLog("Validating query: %s", q.Name)
		if _, err := m.CompileQuery(q); err != nil {
			queryErrs = append(queryErrs, err)
			continue
		}
		result.Queries = append(result.Queries, q.Name)
	}
	if len(queryErrs) > 0 {
		_ = formatter.Errors(toCLIErrors(queryErrs))
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(queryErrs)))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Manifest valid: %d query(ies)\n", len(result.Queries))
	return nil
}

func toCLIErrors(errs []error) []CLIError {
	out := make([]CLIError, len(errs))
	for i, err := range errs {
		out[i] = toCLIError(err)
	}
	return out
}
