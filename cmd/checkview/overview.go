package main

import (
	"github.com/spf13/cobra"

	"github.com/davetashner/checkview/internal/output"
	"github.com/davetashner/checkview/internal/perfdb"
)

// Overview-specific flag values.
var (
	overviewFormat   string
	overviewDatasets []string
)

// overviewCmd summarises every dataset an organisation provides.
var overviewCmd = &cobra.Command{
	Use:   "overview <lpa>",
	Short: "Summarise the endpoint status and issues of an organisation's datasets",
	Args:  cobra.ExactArgs(1),
	RunE:  runOverview,
}

func init() {
	overviewCmd.Flags().StringVarP(&overviewFormat, "format", "f", "", formatFlagUsage)
	overviewCmd.Flags().StringSliceVar(&overviewDatasets, "dataset", nil, "limit to these datasets (repeatable)")
}

func runOverview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // read-only connections

	recs, err := store.Fetch(cmd.Context(), perfdb.LpaOverview(args[0], overviewDatasets))
	if err != nil {
		return failure(err)
	}
	ov := perfdb.ParseOverview(recs)
	return writeDoc(cmd.OutOrStdout(), cfg, overviewFormat, output.Document{Kind: output.KindOverview, View: ov})
}
