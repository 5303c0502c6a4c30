package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/mutexec/internal/domain"
	m "gooze.dev/pkg/mutexec/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [report]",
		Short: "View a previously generated mutation report",
		Long: `View a mutation report written by run. The argument is a report file or
a directory holding one; it defaults to the output directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report := m.Path(viper.GetString(outputFlagName))
			if len(args) == 1 {
				report = m.Path(args[0])
			}

			return workflow.View(cmd.Context(), domain.ViewArgs{Report: report})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
