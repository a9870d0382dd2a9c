package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davetashner/checkview/internal/output"
	"github.com/davetashner/checkview/internal/results"
)

// Results-specific flag values.
var (
	resultsFormat string
	resultsPage   int
)

// resultsCmd shows the outcome of a request made to the validation API.
var resultsCmd = &cobra.Command{
	Use:   "results <request-id>",
	Short: "Show the results of a validation request",
	Long: `Fetch a validation request from the configured API and show its
outcome: still running, failed, or complete with or without errors. Rows
with errors are listed one page at a time.

Exits 2 when the request found errors and 3 when the request failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().StringVarP(&resultsFormat, "format", "f", "", formatFlagUsage)
	resultsCmd.Flags().IntVar(&resultsPage, "page", 1, "page of rows to show")
}

func runResults(cmd *cobra.Command, args []string) error {
	if resultsPage < 1 {
		return exitError(ExitInvalidArgs, "checkview: --page must be positive, got %d", resultsPage)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := apiClient(cfg)
	if err != nil {
		return err
	}

	id := args[0]
	out, err := results.Decide(cmd.Context(), client, *paginator(cfg), id, resultsPage)
	if err != nil {
		return failure(err)
	}

	if out.Kind == results.KindRedirect {
		msg := fmt.Sprintf("request %s is still running; check %s", id, out.Location)
		return writeDoc(cmd.OutOrStdout(), cfg, resultsFormat, output.Document{Kind: output.KindMessage, RequestID: id, View: msg})
	}
	if err := writeDoc(cmd.OutOrStdout(), cfg, resultsFormat, output.Document{Kind: output.KindResults, RequestID: id, View: out.View}); err != nil {
		return err
	}
	switch out.Kind {
	case results.KindFailed:
		return exitError(ExitFailure, "checkview: validation request %s failed", id)
	case results.KindErrors:
		return exitError(ExitErrorsFound, "")
	default:
		return nil
	}
}
