package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davetashner/checkview/internal/issuetable"
	"github.com/davetashner/checkview/internal/output"
	"github.com/davetashner/checkview/internal/pipeline"
)

// Issues-specific flag values.
var (
	issuesFormat   string
	issuesLPA      string
	issuesDataset  string
	issuesType     string
	issuesField    string
	issuesPage     string
	issuesResource string
)

// issuesCmd renders one page of the entities carrying an issue type.
var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Show the entities an organisation supplied with one issue type",
	Long: `Run the issue table pipeline against the configured database: look up
the organisation and dataset, find the latest resource (or use --resource),
and list one page of the entities whose --field carries --type.

Examples:
  checkview issues --lpa local-authority:CMD --dataset article-4-direction \
    --type invalid-date --field start-date
  checkview issues --lpa local-authority:CMD --dataset tree --type missing-value \
    --field reference --page 3 --format json`,
	Args: cobra.NoArgs,
	RunE: runIssues,
}

func init() {
	issuesCmd.Flags().StringVarP(&issuesFormat, "format", "f", "", formatFlagUsage)
	issuesCmd.Flags().StringVar(&issuesLPA, "lpa", "", "organisation code (required)")
	issuesCmd.Flags().StringVar(&issuesDataset, "dataset", "", "dataset name (required)")
	issuesCmd.Flags().StringVar(&issuesType, "type", "", "issue type (required)")
	issuesCmd.Flags().StringVar(&issuesField, "field", "", "field the issue is raised on (required)")
	issuesCmd.Flags().StringVar(&issuesPage, "page", "", "page number (default 1)")
	issuesCmd.Flags().StringVar(&issuesResource, "resource", "", "resource hash (default the latest resource)")
}

func runIssues(cmd *cobra.Command, _ []string) error {
	p := issuetable.Params{
		LPA:        issuesLPA,
		Dataset:    issuesDataset,
		IssueType:  issuesType,
		IssueField: issuesField,
		PageNumber: issuesPage,
		ResourceID: issuesResource,
	}
	if err := p.Validate(); err != nil {
		return failure(err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // read-only connections

	resolver, err := loadMessages(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	deps := issuetable.Deps{Messages: resolver, PageSize: cfg.PageSize, Paginator: paginator(cfg)}
	view, out := issuetable.Run(cmd.Context(), pipeline.NewEngine(store, nil), deps, p)
	switch out.State {
	case pipeline.StateCompleted:
		return writeDoc(cmd.OutOrStdout(), cfg, issuesFormat, output.Document{Kind: output.KindIssues, View: view})
	case pipeline.StateHalted:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "stopped: %s\n", out.Halt.Reason)
		return nil
	default:
		return failure(out.Err)
	}
}
