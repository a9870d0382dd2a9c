package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	checkviewlog "github.com/davetashner/checkview/internal/log"
)

// Global flag values.
var (
	verbose    bool
	quiet      bool
	noColor    bool
	configPath string
	logFormat  string
)

// rootCmd is the base command for checkview.
var rootCmd = &cobra.Command{
	Use:   "checkview",
	Short: "Browse data validation results and publishing issues",
	Long: `Checkview turns validation reports and the analytical database behind a
data provider's submissions into readable views: the rows of an uploaded
file that failed validation, the entities carrying one issue type, and the
results of a request made to the validation API.

Views print as aligned tables or as JSON, and "checkview serve" exposes the
same views over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		checkviewlog.Setup(checkviewlog.Options{Verbose: verbose, Quiet: quiet, Format: logFormat})
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default .checkview.yaml or .checkview.toml)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log handler: text or json (default from config)")

	rootCmd.AddCommand(errorsCmd)
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
