package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "phonecheck: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "phonecheck",
		Short: "Look up operator and region metadata for phone numbers",
		Long: `phonecheck resolves phone numbers through a remote lookup API,
caching results, persisting resolved records and keeping a query history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newLookupCmd(),
		newFieldCmd(),
		newMigrateCmd(),
	)
	return root
}
