package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opencollective/deep-cover/internal/domain"
	m "github.com/opencollective/deep-cover/internal/model"
)

var reportParallelFlag uint
var reportFormatFlag string

// reportCmd represents the report command.
var reportCmd = newReportCmd()

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [paths...]",
		Short: "Derive branch coverage reports",
		Long:  reportLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			paths := parsePaths(args)
			workers := viper.GetUint(reportParallelConfigKey)

			reports, err := workflow.Report(domain.ReportArgs{
				Paths:    paths,
				Exclude:  viper.GetStringSlice(excludeConfigKey),
				Counters: m.Path(viper.GetString(countersConfigKey)),
				Output:   m.Path(viper.GetString(outputFlagName)),
				Workers:  workers,
			})
			if err != nil {
				return ui.DisplayReports(ctx, reports, err)
			}

			return displayReports(ctx, cmd, reports)
		},
	}

	configureReportFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func configureReportFlags(cmd *cobra.Command) {
	cmd.Flags().UintVarP(&reportParallelFlag, reportParallelFlagName, "p", viper.GetUint(reportParallelConfigKey), "number of parallel workers for coverage derivation")
	bindFlagToConfig(cmd.Flags().Lookup(reportParallelFlagName), reportParallelConfigKey)

	configureFormatFlag(cmd)
}

func configureFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&reportFormatFlag, formatFlagName, "f", viper.GetString(reportFormatConfigKey), "output format: table or yaml")
	bindFlagToConfig(cmd.Flags().Lookup(formatFlagName), reportFormatConfigKey)
}

// displayReports routes a successful report set to the configured output
// format. The command's own flag wins over config because the format flag
// is registered on more than one command.
func displayReports(ctx context.Context, cmd *cobra.Command, reports []m.FileReport) error {
	format := viper.GetString(reportFormatConfigKey)
	if flag := cmd.Flags().Lookup(formatFlagName); flag != nil && flag.Changed {
		format = flag.Value.String()
	}

	switch format {
	case formatYAML:
		rendered, err := workflow.RenderYAML(reports)
		if err != nil {
			return err
		}

		cmd.Print(string(rendered))

		return nil
	case formatTable, "":
		return ui.DisplayReports(ctx, reports, nil)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
