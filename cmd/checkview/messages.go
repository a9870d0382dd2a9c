package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/davetashner/checkview/internal/messages"
)

// Messages-specific flag values.
var (
	messagesEntity bool
	messagesList   bool
)

// messagesCmd renders a catalog message, mainly to check catalog files.
var messagesCmd = &cobra.Command{
	Use:   "messages <issue-type> <count>",
	Short: "Render the message for an issue type and count",
	Long: `Load the configured message catalogs and render the message for an
issue type at a count. Use --entity for the entity-level wording shown as
the issue table heading, and --list to print every known issue type.

Examples:
  checkview messages invalid-date 3
  checkview messages invalid-date 1 --entity
  checkview messages --list`,
	Args: func(cmd *cobra.Command, args []string) error {
		if messagesList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runMessages,
}

func init() {
	messagesCmd.Flags().BoolVar(&messagesEntity, "entity", false, "use the entity-level message")
	messagesCmd.Flags().BoolVar(&messagesList, "list", false, "list the issue types in the catalogs")
}

func runMessages(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	field, entity, ok := messageSources(cfg)
	if !ok {
		return exitError(ExitInvalidArgs, "checkview: messages.field and messages.entity must both be set")
	}
	catalog, err := messages.LoadCatalog(cmd.Context(), field, entity)
	if err != nil {
		return failure(err)
	}

	w := cmd.OutOrStdout()
	if messagesList {
		for _, t := range catalog.IssueTypes() {
			_, _ = fmt.Fprintln(w, t)
		}
		return nil
	}

	count, err := strconv.Atoi(args[1])
	if err != nil || count < 0 {
		return exitError(ExitInvalidArgs, "checkview: count must be a non-negative integer, got %q", args[1])
	}
	msg, err := catalog.Message(args[0], count, messagesEntity)
	if err != nil {
		return exitError(ExitInvalidArgs, "checkview: %v", err)
	}
	_, _ = fmt.Fprintln(w, msg)
	return nil
}

// resetMessagesFlags resets messages command flags for testing.
func resetMessagesFlags() {
	messagesEntity = false
	messagesList = false
}
