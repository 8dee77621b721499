package cmd

import (
	"context"

	"github.com/spf13/cobra"

	m "github.com/opencollective/deep-cover/internal/model"
)

// diffCmd represents the diff command.
var diffCmd = newDiffCmd()

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <before> <after>",
		Short: "Compare two stored coverage reports",
		Long:  "Renders both reports as YAML and prints a unified diff between them.",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := context.Background()

			diff, err := workflow.Diff(m.Path(args[0]), m.Path(args[1]))
			if err != nil {
				return err
			}

			ui.DisplayReportDiff(ctx, diff)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
