package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/checkview/internal/config"
)

// resetFlags restores every package-level flag value between runs of the
// shared rootCmd.
func resetFlags() {
	verbose, quiet, noColor = false, false, false
	configPath, logFormat = "", ""
	errorsFormat, errorsSeverity, errorsDataset, errorsDataSubject = "", "", "", ""
	issuesFormat, issuesLPA, issuesDataset, issuesType, issuesField, issuesPage, issuesResource = "", "", "", "", "", "", ""
	resultsFormat, resultsPage = "", 1
	overviewFormat, overviewDatasets = "", nil
	serveAddr = ""
	resetMessagesFlags()
	resetConfigFlags()
	clearChanged(rootCmd)
}

// clearChanged forgets which flags were set on a previous run, so commands
// that consult Flags().Changed see a fresh invocation.
func clearChanged(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) { f.Changed = false }
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	if h := cmd.Flags().Lookup("help"); h != nil {
		_ = h.Value.Set("false")
	}
	for _, sub := range cmd.Commands() {
		clearChanged(sub)
	}
}

// isolate runs the test from an empty directory with no global config and
// no CHECKVIEW_* overrides. It returns the directory.
func isolate(t *testing.T) string {
	t.Helper()
	color.NoColor = true

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(config.EnvDatabaseDSN, "")
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvPageSize, "")

	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
	return dir
}

// execute runs rootCmd with args and returns what it wrote.
func execute(args ...string) (stdout, stderr string, err error) {
	resetFlags()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// exitCode returns the code err carries, ExitOK for nil.
func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return ExitOK
	}
	ece, ok := err.(*exitCodeError)
	require.True(t, ok, "want *exitCodeError, got %T: %v", err, err)
	return ece.ExitCode()
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// sampleReport is the shared validation report, resolved before any test
// changes directory.
var sampleReport = func() string {
	p, err := filepath.Abs(filepath.Join("..", "..", "internal", "validation", "testdata", "report.json"))
	if err != nil {
		panic(err)
	}
	return p
}()
