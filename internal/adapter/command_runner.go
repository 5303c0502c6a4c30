package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/internal/protocol"
	"gooze.dev/pkg/mutexec/pkg/hitlimit"
)

// EnvTestFilter lists the selected test ids, comma separated, for command runners.
const EnvTestFilter = "MUTEXEC_TEST_FILTER"

// CommandTestName is the single test reported by the command runner.
const CommandTestName = "command"

const commandOutputLimit = 4096

// CommandOptions configure the command runner.
type CommandOptions struct {
	Command []string          `mapstructure:"command"`
	Env     map[string]string `mapstructure:"env"`
}

// CommandRunner treats an arbitrary command as one test: exit code zero is
// a pass, anything else a failure.
type CommandRunner struct {
	workDir string
	options CommandOptions
}

// NewCommandRunner decodes raw options and returns a runner for workDir.
func NewCommandRunner(workDir string, raw map[string]any) (*CommandRunner, error) {
	var options CommandOptions
	if err := mapstructure.Decode(raw, &options); err != nil {
		return nil, fmt.Errorf("decode command options: %w", err)
	}

	if len(options.Command) == 0 {
		return nil, errors.New("command runner needs a command option")
	}

	return &CommandRunner{workDir: workDir, options: options}, nil
}

// Init checks that the command can be found.
func (r *CommandRunner) Init(context.Context) error {
	if _, err := exec.LookPath(r.options.Command[0]); err != nil {
		return fmt.Errorf("find command %q: %w", r.options.Command[0], err)
	}

	return nil
}

// Run executes the command once.
func (r *CommandRunner) Run(ctx context.Context, options protocol.RunOptions) (m.RunResult, error) {
	cmd := exec.CommandContext(ctx, r.options.Command[0], r.options.Command[1:]...)
	cmd.Dir = r.workDir
	cmd.Env = os.Environ()

	for k, v := range r.options.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if len(options.TestFilter) > 0 {
		cmd.Env = append(cmd.Env, EnvTestFilter+"="+strings.Join(options.TestFilter, ","))
	}

	if options.HitLimit > 0 {
		cmd.Env = append(cmd.Env, hitlimit.EnvHitLimit+"="+strconv.FormatInt(options.HitLimit, 10))
	}

	var output bytes.Buffer

	cmd.Stdout = &output
	cmd.Stderr = &output

	started := time.Now()
	err := cmd.Run()
	test := m.TestResult{Name: CommandTestName, Status: m.TestSuccess, TimeSpentMs: time.Since(started).Milliseconds()}

	var exitErr *exec.ExitError

	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		test.Status = m.TestFailed
		test.FailureMessages = []string{tail(output.String(), commandOutputLimit)}
	default:
		return m.RunResult{Status: m.RunError, ErrorMessages: []string{err.Error()}}, nil
	}

	return m.RunResult{Status: m.RunComplete, Tests: []m.TestResult{test}}, nil
}

// Dispose is a no-op.
func (r *CommandRunner) Dispose(context.Context) error {
	return nil
}

func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}

	return s[len(s)-limit:]
}
