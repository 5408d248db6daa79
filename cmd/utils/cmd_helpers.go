package utils

import (
	"fmt"

	"github.com/spf13/cobra"
)

// PropagatePersistentPreRun runs the parent's PersistentPreRun, so subcommands still load the global config options.
func PropagatePersistentPreRun(cmd *cobra.Command, args []string) {
	if parent := cmd.Parent(); parent != nil && parent.PersistentPreRun != nil {
		parent.PersistentPreRun(parent, args)
	}
}

// CallHelpCommand prints the command's help. It's used by the commands that only group subcommands.
func CallHelpCommand(cmd *cobra.Command, _ []string) error {
	if err := cmd.Help(); err != nil {
		return fmt.Errorf("calling help command: %w", err)
	}
	return nil
}
