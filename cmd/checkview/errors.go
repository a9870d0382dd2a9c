package main

import (
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/davetashner/checkview/internal/aggregate"
	"github.com/davetashner/checkview/internal/errorsview"
	"github.com/davetashner/checkview/internal/output"
	"github.com/davetashner/checkview/internal/validation"
)

// Errors-specific flag values.
var (
	errorsFormat      string
	errorsSeverity    string
	errorsDataset     string
	errorsDataSubject string
)

// errorsCmd renders the rows of a validation report that carry issues.
var errorsCmd = &cobra.Command{
	Use:   "errors <report.json>",
	Short: "Show the rows of a validation report that carry issues",
	Long: `Read a validation report (JSON with converted-csv, issue-log and
column-field-log) and show each row that carries an issue, with the
offending cells marked.

Exits 2 when the report contains errors.

Examples:
  checkview errors report.json --dataset conservation-area
  checkview errors report.json --severity warning --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runErrors,
}

func init() {
	errorsCmd.Flags().StringVarP(&errorsFormat, "format", "f", "", formatFlagUsage)
	errorsCmd.Flags().StringVar(&errorsSeverity, "severity", "", "only show issues of this severity (error, warning, info)")
	errorsCmd.Flags().StringVar(&errorsDataset, "dataset", "", "dataset the report was validated against")
	errorsCmd.Flags().StringVar(&errorsDataSubject, "data-subject", "", "data subject shown with the dataset (default the dataset)")
}

func runErrors(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sev, err := validation.ParseSeverity(errorsSeverity)
	if err != nil {
		return exitError(ExitInvalidArgs, "checkview: %v", err)
	}

	report, err := validation.LoadReport(args[0])
	if errors.Is(err, fs.ErrNotExist) {
		return exitError(ExitInvalidArgs, "checkview: cannot open %q (%v)", args[0], err)
	}
	if err != nil {
		return failure(err)
	}

	opts := errorsview.Options{Filter: aggregate.Filter{Severity: sev}}
	resolver, err := loadMessages(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if resolver != nil {
		catalog, err := resolver.Catalog(cmd.Context())
		if err != nil {
			return failure(err)
		}
		opts.Labeler = catalog.Label
	}

	subject := errorsDataSubject
	if subject == "" {
		subject = errorsDataset
	}
	view, err := errorsview.Build(report, errorsDataset, subject, opts)
	if err != nil {
		return failure(err)
	}

	if err := writeDoc(cmd.OutOrStdout(), cfg, errorsFormat, output.Document{Kind: output.KindErrors, View: view}); err != nil {
		return err
	}
	if view.ErrorCount > 0 {
		return exitError(ExitErrorsFound, "")
	}
	return nil
}
