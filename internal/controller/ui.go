// Package controller renders engine progress and reports for the CLI.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "gooze.dev/pkg/mutexec/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeTest StartMode = iota
	ModeBaseline
	ModeView
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithTestMode sets the UI to mutant testing mode.
func WithTestMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeTest
	}
}

// WithBaselineMode sets the UI to render only the initial test run.
func WithBaselineMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeBaseline
	}
}

// WithViewMode sets the UI to render a saved report.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

func buildStartConfig(options []StartOption) StartConfig {
	config := StartConfig{mode: ModeTest}
	for _, option := range options {
		option(&config)
	}

	return config
}

// UI displays the progress of an engine run.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplayBaseline(ctx context.Context, result m.RunResult, err error)
	DisplayConcurrencyInfo(ctx context.Context, sandboxes int, shardIndex int, shardCount int)
	DisplayUpcomingTestsInfo(ctx context.Context, count int)
	DisplayCompletedTestInfo(ctx context.Context, result m.MutantResult)
	DisplayMutationScore(ctx context.Context, score m.Score)
	DisplayReport(ctx context.Context, report m.Report)
}

// NewUI picks the interactive UI for terminals and the line based one
// otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
