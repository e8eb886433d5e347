// Command advos runs the advisory-biased scheduling kernel simulator
// and analyzes the scheduler logs it produces.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"advos/internal/buildinfo"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "advos",
		Short:         "Advisory-biased scheduling kernel simulator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd(), newAnalyzeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "advos "+buildinfo.Long())
		},
	}
}
