package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/mutexec/internal/domain"
	m "gooze.dev/pkg/mutexec/internal/model"
)

var runConcurrencyFlag int
var runShardFlag string
var runTimeoutMsFlag int
var runTimeoutFactorFlag float64
var runTestFilterFlag bool
var runRunnerFlag string
var runIgnoreFlag []string
var runMetricsFileFlag string

const runLongDescription = `Run every mutant of a plan against the tests that cover it.

The plan is a YAML or JSON file listing the project root and the mutants to
test. An initial run of the whole suite collects per-test coverage first; it
must pass before any mutant is tested. The report is written to the output
directory (one shard_<i> subdirectory per shard when --shard is used).`

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <plan>",
		Short: "Test the mutants of a plan",
		Long:  runLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shardIndex, totalShards := parseShardFlag(runShardFlag)

			return workflow.Run(cmd.Context(), domain.RunArgs{
				Plan:            m.Path(args[0]),
				Reports:         m.Path(viper.GetString(outputFlagName)),
				MetricsFile:     viper.GetString(metricsFileKey),
				ShardIndex:      shardIndex,
				TotalShardCount: totalShards,
			})
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runConcurrencyFlag, concurrencyFlagName, "c", viper.GetInt(concurrencyConfigKey), "number of sandboxes testing mutants in parallel (0 = one per CPU core)")
	bindFlagToConfig(cmd.Flags().Lookup(concurrencyFlagName), concurrencyConfigKey)

	cmd.Flags().StringVarP(&runShardFlag, shardFlagName, "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")

	cmd.Flags().IntVar(&runTimeoutMsFlag, timeoutMsFlagName, viper.GetInt(timeoutMsConfigKey), "fixed milliseconds added to every mutant timeout")
	bindFlagToConfig(cmd.Flags().Lookup(timeoutMsFlagName), timeoutMsConfigKey)

	cmd.Flags().Float64Var(&runTimeoutFactorFlag, timeoutFactorFlagName, viper.GetFloat64(timeoutFactorConfigKey), "multiplier applied to the covering tests' baseline time")
	bindFlagToConfig(cmd.Flags().Lookup(timeoutFactorFlagName), timeoutFactorConfigKey)

	cmd.Flags().BoolVar(&runTestFilterFlag, testFilterFlagName, viper.GetBool(testFilterConfigKey), "run only the tests covering each mutant")
	bindFlagToConfig(cmd.Flags().Lookup(testFilterFlagName), testFilterConfigKey)

	cmd.Flags().StringVar(&runRunnerFlag, runnerFlagName, viper.GetString(runnerNameKey), "test runner started in each worker (gotest, command)")
	bindFlagToConfig(cmd.Flags().Lookup(runnerFlagName), runnerNameKey)

	cmd.Flags().StringArrayVar(&runIgnoreFlag, ignoreFlagName, viper.GetStringSlice(sandboxIgnoreKey), "glob of paths not copied into sandboxes (can be repeated)")
	bindFlagToConfig(cmd.Flags().Lookup(ignoreFlagName), sandboxIgnoreKey)

	cmd.Flags().StringVar(&runMetricsFileFlag, metricsFileFlagName, viper.GetString(metricsFileKey), "write prometheus metrics of the run to this file")
	bindFlagToConfig(cmd.Flags().Lookup(metricsFileFlagName), metricsFileKey)
}

func parseShardFlag(shard string) (int, int) {
	if shard == "" {
		return 0, 1
	}

	var index, total int

	_, err := fmt.Sscanf(shard, "%d/%d", &index, &total)
	if err != nil || total <= 0 || index < 0 || index >= total {
		return 0, 1
	}

	return index, total
}
