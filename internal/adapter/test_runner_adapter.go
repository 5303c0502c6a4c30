package adapter

import (
	"errors"
	"fmt"

	"gooze.dev/pkg/mutexec/internal/protocol"
	"gooze.dev/pkg/mutexec/internal/runner"
)

// Built-in test runner names.
const (
	RunnerGoTest  = "gotest"
	RunnerCommand = "command"
)

// ErrUnknownTestRunner is returned for a runner name that is not built in.
var ErrUnknownTestRunner = errors.New("unknown test runner")

// NewTestRunner builds the test runner named by a start command. It is the
// factory the worker process serves.
func NewTestRunner(start protocol.StartPayload) (runner.TestRunner, error) {
	switch start.RunnerName {
	case RunnerGoTest, "":
		return NewGoTestRunner(start.WorkDir, start.Options)
	case RunnerCommand:
		return NewCommandRunner(start.WorkDir, start.Options)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTestRunner, start.RunnerName)
	}
}
