package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/mutexec/internal/adapter"
	"gooze.dev/pkg/mutexec/internal/worker"
)

const workerCmdName = "worker"

// Descriptors the parent hands to a worker through ExtraFiles.
const (
	workerCommandsFD = 3
	workerRepliesFD  = 4
)

var errNoWorkerChannel = errors.New("worker channel not available, mutexec worker is started by mutexec run")

// workerCmd represents the worker command.
var workerCmd = newWorkerCmd()

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    workerCmdName,
		Short:  "Serve a test runner to a parent mutexec process",
		Hidden: true,
		Args:   cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureWorkerLogger(cmd.ErrOrStderr(), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			commands := os.NewFile(workerCommandsFD, "commands")
			replies := os.NewFile(workerRepliesFD, "replies")

			if !isOpen(commands) || !isOpen(replies) {
				return errNoWorkerChannel
			}

			defer func() {
				_ = commands.Close()
				_ = replies.Close()
			}()

			if err := worker.Serve(cmd.Context(), commands, replies, adapter.NewTestRunner); err != nil {
				return fmt.Errorf("serve worker: %w", err)
			}

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func isOpen(f *os.File) bool {
	if f == nil {
		return false
	}

	_, err := f.Stat()

	return err == nil
}
