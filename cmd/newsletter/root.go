package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "newsletter",
		Short:         "Newsletter subscription service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newServeCommand(),
		newImportCommand(),
		newCountCommand(),
		newMigrateCommand(),
	)
	return cmd
}
