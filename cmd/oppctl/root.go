package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "oppctl",
		Short:         "Discover AI opportunities from market signals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDiscoverCmd())
	root.AddCommand(newTelegramCheckCmd())
	root.AddCommand(newVersionCmd())
	return root
}
