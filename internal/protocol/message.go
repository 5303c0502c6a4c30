// Package protocol defines the messages exchanged between the engine and a
// test runner hosted in a worker subprocess.
//
// The parent sends exactly four kinds of commands (start, init, run, dispose)
// and the worker answers with three kinds of replies (initDone, result,
// disposeDone). At most one run is outstanding per channel.
package protocol

import (
	"time"

	m "gooze.dev/pkg/mutexec/internal/model"
)

// CommandKind tags a message sent to the worker.
type CommandKind string

// Commands understood by the worker.
const (
	KindStart   CommandKind = "start"
	KindInit    CommandKind = "init"
	KindRun     CommandKind = "run"
	KindDispose CommandKind = "dispose"
)

// ReplyKind tags a message sent back by the worker.
type ReplyKind string

// Replies produced by the worker.
const (
	KindInitDone    ReplyKind = "initDone"
	KindResult      ReplyKind = "result"
	KindDisposeDone ReplyKind = "disposeDone"
)

// RunOptions parameterize a single test run.
type RunOptions struct {
	// Timeout is a hint for the runner; enforcement happens in the parent.
	Timeout time.Duration `json:"timeout"`
	// Coverage asks the runner to capture per-test coverage.
	Coverage bool `json:"coverage,omitempty"`
	// HitLimit bounds statement executions for in-process runners; 0 disables it.
	HitLimit int64 `json:"hitLimit,omitempty"`
	// TestFilter, when set, restricts the run to these test ids.
	TestFilter []string `json:"testFilter,omitempty"`
}

// StartPayload selects and configures the test runner inside the worker.
type StartPayload struct {
	RunnerName string         `json:"runnerName"`
	Options    map[string]any `json:"options,omitempty"`
	WorkDir    string         `json:"workDir"`
}

// Command is the tagged union of messages sent to the worker.
type Command struct {
	Kind  CommandKind   `json:"kind"`
	Start *StartPayload `json:"start,omitempty"`
	Run   *RunOptions   `json:"run,omitempty"`
}

// Reply is the tagged union of messages sent by the worker.
type Reply struct {
	Kind   ReplyKind    `json:"kind"`
	Result *m.RunResult `json:"result,omitempty"`
	// Error carries an init failure reported by the hosted runner.
	Error string `json:"error,omitempty"`
}

// StartCommand builds a start command.
func StartCommand(runnerName string, options map[string]any, workDir string) Command {
	return Command{Kind: KindStart, Start: &StartPayload{RunnerName: runnerName, Options: options, WorkDir: workDir}}
}

// InitCommand builds an init command.
func InitCommand() Command {
	return Command{Kind: KindInit}
}

// RunCommand builds a run command.
func RunCommand(options RunOptions) Command {
	return Command{Kind: KindRun, Run: &options}
}

// DisposeCommand builds a dispose command.
func DisposeCommand() Command {
	return Command{Kind: KindDispose}
}
