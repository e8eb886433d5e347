package main

import (
	"os"

	"github.com/spf13/cobra"

	"advos/internal/analysis"
)

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [capture]",
		Short: "Summarize scheduler snapshots from a console capture",
		Long: `Extract SCHED_LOG blocks from a console capture (or stdin) and
report per-process accounting deltas and recent-CPU statistics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			rep, err := analysis.Analyze(in)
			if err != nil {
				return err
			}
			return rep.WriteText(cmd.OutOrStdout())
		},
	}
}
