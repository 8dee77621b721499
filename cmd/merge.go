package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "github.com/opencollective/deep-cover/internal/model"
)

// mergeCmd represents the merge command.
var mergeCmd = newMergeCmd()

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <counters...>",
		Short: "Merge counter snapshots into one",
		Long: `Merge counter snapshots and hit logs from multiple runs into a single
snapshot, summing the hits recorded for each tracker.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			output := m.Path(viper.GetString(countersConfigKey))
			return workflow.MergeCounters(parsePaths(args), output)
		},
	}
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
