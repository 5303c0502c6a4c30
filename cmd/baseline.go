package cmd

import (
	"github.com/spf13/cobra"

	"gooze.dev/pkg/mutexec/internal/domain"
	m "gooze.dev/pkg/mutexec/internal/model"
)

// baselineCmd represents the baseline command.
var baselineCmd = newBaselineCmd()

func newBaselineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "baseline <plan>",
		Short: "Run only the initial test run of a plan",
		Long: `Run the whole test suite of the plan's project once, collecting per-test
coverage, and print the per-test timings. Useful to diagnose a slow or
failing suite before testing mutants.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Baseline(cmd.Context(), domain.BaselineArgs{Plan: m.Path(args[0])})
		},
	}
}

func init() {
	rootCmd.AddCommand(baselineCmd)
}
