package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [paths...]",
		Short: "List analyzable source files",
		Long:  listLongDescription,
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := context.Background()
			paths := parsePaths(args)

			sources, err := workflow.Inventory(paths, viper.GetStringSlice(excludeConfigKey))

			return ui.DisplayInventory(ctx, sources, err)
		},
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
