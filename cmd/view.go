package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "github.com/opencollective/deep-cover/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View a previously derived coverage report",
		Long:  "View a previously derived coverage report from its saved location.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			reportsPath := m.Path(viper.GetString(outputFlagName))

			reports, err := workflow.View(reportsPath)
			if err != nil {
				return ui.DisplayReports(ctx, reports, err)
			}

			return displayReports(ctx, cmd, reports)
		},
	}

	configureFormatFlag(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
