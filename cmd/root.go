// Package cmd provides the root command and CLI setup for deep-cover.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/opencollective/deep-cover/internal/adapter"
	"github.com/opencollective/deep-cover/internal/controller"
	"github.com/opencollective/deep-cover/internal/domain"
	m "github.com/opencollective/deep-cover/internal/model"
)

var fsAdapter adapter.SourceFSAdapter
var rubyAdapter adapter.RubySourceAdapter
var counterAdapter adapter.CounterSnapshotAdapter
var reportStore adapter.ReportStore
var deriver domain.Deriver
var workflow domain.Workflow
var ui controller.UI

// reportsOutputFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputFlag string

// countersPathFlag points at the counter snapshot or hit log to derive from.
var countersPathFlag string

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

// verboseFlag switches file logging to debug level.
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewSimpleUI(rootCmd)
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	rubyAdapter = adapter.NewTreeSitterRubyAdapter()
	counterAdapter = adapter.NewLocalCounterSnapshotAdapter()
	reportStore = adapter.NewFileReportStore()
	deriver = domain.NewDeriver()
	workflow = domain.NewWorkflow(
		fsAdapter,
		rubyAdapter,
		counterAdapter,
		reportStore,
		deriver,
	)
}

const pathArgsHelp = `Paths are directories scanned recursively for .rb files:
  - .              scan the current directory
  - lib spec       scan multiple directories`

const rootLongDescription = `Deep-cover derives branch coverage for Ruby sources from recorded
execution counters, reporting which branches of each conditional,
loop and short-circuit operator actually ran.

` + pathArgsHelp

const reportLongDescription = `Derive branch coverage reports for the given paths (default: current directory).

` + pathArgsHelp

const listLongDescription = `List the source files a report would analyze.

` + pathArgsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deep-cover",
		Short: "Ruby branch coverage derivation tool",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), verboseFlag || viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output path for the derived coverage report",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringVarP(&countersPathFlag, countersFlagName, "c", viper.GetString(countersConfigKey), "path to the counter snapshot or hit log")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(countersFlagName), countersConfigKey)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
