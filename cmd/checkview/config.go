package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/davetashner/checkview/internal/config"
)

// Config command flags.
var configGlobal bool

// configCmd is the parent command for config subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and modify checkview configuration",
	Long: `View and modify checkview configuration.

Checkview reads .checkview.yaml (or .checkview.toml) from the working
directory. A global config at ~/.config/checkview/config.yaml provides
defaults, and CHECKVIEW_DATABASE_DSN, CHECKVIEW_API_URL and
CHECKVIEW_PAGE_SIZE override both.

Note: config set does a YAML round-trip and will not preserve comments.`,
}

// configGetCmd retrieves a configuration value by dot-notation key path.
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value by dot-notation key path.

Examples:
  checkview config get database.driver
  checkview config get database.attach
  checkview config get --global api.url`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the YAML config file.

Values are auto-detected as bool, int, or string.
By default, writes to .checkview.yaml in the current directory.
Use --global to write to ~/.config/checkview/config.yaml.

Examples:
  checkview config set database.dsn digital-land.sqlite3
  checkview config set database.attach.performance performance.sqlite3
  checkview config set page_size 25`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

// configListCmd lists all configuration values with their source.
var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Long: `List every set configuration value, annotated with whether it comes
from the local config file or the global one. Local values override global
values.`,
	Args: cobra.NoArgs,
	RunE: runConfigList,
}

func init() {
	configGetCmd.Flags().BoolVar(&configGlobal, "global", false, "use global config (~/.config/checkview/config.yaml)")
	configSetCmd.Flags().BoolVar(&configGlobal, "global", false, "write to global config (~/.config/checkview/config.yaml)")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}

// resetConfigFlags resets config command flags for testing.
func resetConfigFlags() {
	configGlobal = false
	for _, c := range []*cobra.Command{configGetCmd, configSetCmd} {
		if f := c.Flags().Lookup("global"); f != nil {
			_ = f.Value.Set("false")
		}
	}
}

// localConfig loads the --config file, or the one in the working directory.
func localConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load(".")
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	globalCfg, err := config.LoadGlobal()
	if err != nil {
		return fmt.Errorf("loading global config: %w", err)
	}
	cfg := globalCfg
	if !configGlobal {
		local, err := localConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Merge(globalCfg, local)
	}

	val, err := config.GetValue(cfg, args[0])
	if err != nil {
		return err
	}
	return printValue(cmd, val)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	keyPath, rawValue := args[0], args[1]
	if err := config.ValidateKeyPath(keyPath); err != nil {
		return exitError(ExitInvalidArgs, "checkview: %v", err)
	}

	targetPath := filepath.Join(".", config.FileName)
	if configGlobal {
		targetPath = config.GlobalConfigPath()
	}

	data, err := config.LoadRaw(targetPath)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	if err := config.SetValue(data, keyPath, rawValue); err != nil {
		return fmt.Errorf("setting value: %w", err)
	}

	// Round-trip through Config so invalid values never reach the file.
	roundTrip, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	validCfg, err := config.Parse(roundTrip, false)
	if err != nil {
		return exitError(ExitInvalidArgs, "checkview: invalid config after set: %v", err)
	}
	if err := config.Validate(validCfg); err != nil {
		return exitError(ExitInvalidArgs, "checkview: %v", err)
	}

	if err := config.WriteFile(targetPath, data); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", keyPath, rawValue)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	globalCfg, err := config.LoadGlobal()
	if err != nil {
		return fmt.Errorf("loading global config: %w", err)
	}
	local, err := localConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	type entry struct {
		value  any
		source string
	}
	seen := make(map[string]entry)
	for _, layer := range []struct {
		cfg    *config.Config
		source string
	}{{globalCfg, "global"}, {local, "local"}} {
		flat, err := flatten(layer.cfg)
		if err != nil {
			return err
		}
		for k, v := range flat {
			seen[k] = entry{value: v, source: layer.source}
		}
	}

	if len(seen) == 0 {
		_, _ = fmt.Fprintln(w, "No configuration set.")
		_, _ = fmt.Fprintln(w, "Run 'checkview config set <key> <value>' to set values.")
		return nil
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	globalColor := color.New(color.FgCyan)
	localColor := color.New(color.FgGreen)
	for _, k := range keys {
		e := seen[k]
		label := localColor.Sprint("(local)")
		if e.source == "global" {
			label = globalColor.Sprint("(global)")
		}
		_, _ = fmt.Fprintf(w, "%s = %v %s\n", k, e.value, label)
	}
	return nil
}

// printValue outputs a value: scalars as plain text, maps as YAML.
func printValue(cmd *cobra.Command, val any) error {
	switch v := val.(type) {
	case map[string]any, []any:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
	default:
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

// flatten converts a Config to a flat dot-notation map, omitting zero values.
func flatten(cfg *config.Config) (map[string]any, error) {
	data, err := config.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return config.FlattenMap(m, ""), nil
}
