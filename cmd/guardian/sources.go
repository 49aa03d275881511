package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/guardian/pkg/source"
)

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List source kinds",
		Long:  `List the source kinds accepted by "guardian scan source".`,
		Args:  cobra.NoArgs,
		RunE:  runSources,
	}
}

func runSources(cmd *cobra.Command, args []string) error {
	for _, kind := range source.Available() {
		fmt.Fprintln(cmd.OutOrStdout(), kind)
	}
	return nil
}
