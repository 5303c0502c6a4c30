package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/internal/protocol"
)

const (
	killWait   = 5 * time.Second
	waitDelay  = time.Second
	stderrTail = 4096
)

// ProcessConfig describes the subprocess hosting a test runner.
type ProcessConfig struct {
	// Command is the argv of the worker; Command[0] is the executable.
	Command []string
	// RunnerName selects the test runner inside the worker.
	RunnerName string
	// Options are handed to the test runner verbatim.
	Options map[string]any
	// WorkDir is both the subprocess working directory and the test runner's project root.
	WorkDir string
	// Sandbox labels the forwarded output of the subprocess.
	Sandbox string
	// Env overrides the inherited environment when non-nil.
	Env []string
}

// ProcessAdapter presents a test runner living in a subprocess as a local
// TestRunner. Commands travel over fd 3 and replies over fd 4, one JSON
// frame per line.
type ProcessAdapter struct {
	config ProcessConfig

	calls sync.Mutex

	mu          sync.Mutex
	cmd         *exec.Cmd
	commands    *os.File
	replies     *os.File
	encoder     *protocol.Encoder
	pending     map[protocol.ReplyKind]chan protocol.Reply
	initialized bool
	disposed    bool
	crash       error
	exited      chan struct{}
	output      *outputLog
}

// NewProcessAdapter returns an adapter; the subprocess is spawned by Init.
func NewProcessAdapter(config ProcessConfig) *ProcessAdapter {
	return &ProcessAdapter{
		config:  config,
		pending: make(map[protocol.ReplyKind]chan protocol.Reply),
		exited:  make(chan struct{}),
	}
}

// NewProcessFactory returns a Factory producing process adapters for config.
func NewProcessFactory(config ProcessConfig) Factory {
	return func() TestRunner {
		return NewProcessAdapter(config)
	}
}

// PID returns the subprocess id, or 0 before Init.
func (p *ProcessAdapter) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}

	return p.cmd.Process.Pid
}

// Init spawns the subprocess if needed and initializes the test runner in it.
func (p *ProcessAdapter) Init(ctx context.Context) error {
	if !p.calls.TryLock() {
		return ErrCallInFlight
	}
	defer p.calls.Unlock()

	if err := p.start(); err != nil {
		return err
	}

	reply, err := p.call(ctx, protocol.InitCommand(), protocol.KindInitDone)
	if err != nil {
		return err
	}

	if reply.Error != "" {
		return fmt.Errorf("init test runner %q: %s", p.config.RunnerName, reply.Error)
	}

	p.mu.Lock()
	p.initialized = true
	p.mu.Unlock()

	return nil
}

// Run executes one test run in the subprocess.
func (p *ProcessAdapter) Run(ctx context.Context, options RunOptions) (m.RunResult, error) {
	if !p.calls.TryLock() {
		return m.RunResult{}, ErrCallInFlight
	}
	defer p.calls.Unlock()

	p.mu.Lock()
	initialized, disposed := p.initialized, p.disposed
	p.mu.Unlock()

	if disposed {
		return m.RunResult{}, ErrRunnerDisposed
	}

	if !initialized {
		return m.RunResult{}, ErrNotInitialized
	}

	reply, err := p.call(ctx, protocol.RunCommand(options), protocol.KindResult)
	if err != nil {
		return m.RunResult{}, err
	}

	if reply.Error != "" {
		return m.RunResult{Status: m.RunError, ErrorMessages: []string{reply.Error}}, nil
	}

	if reply.Result == nil {
		return m.RunResult{Status: m.RunError, ErrorMessages: []string{"test runner replied without a result"}}, nil
	}

	return *reply.Result, nil
}

// Dispose asks the test runner to shut down and waits for the subprocess to
// exit. If ctx expires first the process group is killed.
func (p *ProcessAdapter) Dispose(ctx context.Context) error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return nil
	}

	p.disposed = true
	started := p.cmd != nil
	crashed := p.crash != nil
	p.mu.Unlock()

	if !started {
		return nil
	}

	if !crashed {
		if _, err := p.call(ctx, protocol.DisposeCommand(), protocol.KindDisposeDone); err != nil && !errors.Is(err, ErrProcessCrashed) {
			slog.Debug("Test runner did not acknowledge dispose", "pid", p.PID(), "error", err)
		}
	}

	select {
	case <-p.exited:
		return nil
	case <-ctx.Done():
		slog.Warn("Test runner did not exit in time, killing it", "pid", p.PID())

		if err := p.Kill(); err != nil {
			return fmt.Errorf("kill test runner process: %w", err)
		}

		return nil
	}
}

// Kill force-stops the subprocess and everything it spawned.
func (p *ProcessAdapter) Kill() error {
	p.mu.Lock()
	p.disposed = true
	cmd := p.cmd
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	select {
	case <-p.exited:
		return nil
	default:
	}

	if err := killProcessTree(cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		slog.Error("Failed to kill test runner process", "pid", cmd.Process.Pid, "error", err)
		return err
	}

	select {
	case <-p.exited:
		return nil
	case <-time.After(killWait):
		return fmt.Errorf("test runner process %d still running after kill", cmd.Process.Pid)
	}
}

func (p *ProcessAdapter) start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed {
		return ErrRunnerDisposed
	}

	if p.cmd != nil {
		return p.crash
	}

	if len(p.config.Command) == 0 {
		return errors.New("test runner command is empty")
	}

	commandsR, commandsW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create command pipe: %w", err)
	}

	repliesR, repliesW, err := os.Pipe()
	if err != nil {
		closeAll(commandsR, commandsW)
		return fmt.Errorf("create reply pipe: %w", err)
	}

	env := p.config.Env
	if env == nil {
		env = os.Environ()
	}

	args := FilterDebugArgs(p.config.Command[1:])
	cmd := exec.Command(p.config.Command[0], args...)
	cmd.Dir = p.config.WorkDir
	cmd.Env = FilterDebugEnv(env)
	cmd.ExtraFiles = []*os.File{commandsR, repliesW}
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	p.output = newOutputLog(p.config.RunnerName, p.config.Sandbox, stderrTail)
	cmd.Stdout = p.output
	cmd.Stderr = p.output

	if err := cmd.Start(); err != nil {
		closeAll(commandsR, commandsW, repliesR, repliesW)
		slog.Error("Failed to start test runner process", "command", p.config.Command, "error", err)

		return fmt.Errorf("start test runner process: %w", err)
	}

	closeAll(commandsR, repliesW)

	p.output.setPID(cmd.Process.Pid)
	p.cmd = cmd
	p.commands = commandsW
	p.replies = repliesR
	p.encoder = protocol.NewEncoder(commandsW)

	slog.Debug("Started test runner process", "pid", cmd.Process.Pid, "runner", p.config.RunnerName, "dir", p.config.WorkDir)

	go p.readReplies(protocol.NewDecoder(repliesR))
	go p.wait()

	start := protocol.StartCommand(p.config.RunnerName, p.config.Options, p.config.WorkDir)
	if err := p.encoder.Encode(start); err != nil {
		p.crash = &ProcessCrashedError{PID: cmd.Process.Pid, ExitCode: -1, Cause: err}
		return p.crash
	}

	return nil
}

func (p *ProcessAdapter) call(ctx context.Context, command protocol.Command, expect protocol.ReplyKind) (protocol.Reply, error) {
	p.mu.Lock()
	if p.crash != nil {
		err := p.crash
		p.mu.Unlock()

		return protocol.Reply{}, err
	}

	ch := make(chan protocol.Reply, 1)
	p.pending[expect] = ch
	encoder := p.encoder
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		if p.pending[expect] == ch {
			delete(p.pending, expect)
		}
		p.mu.Unlock()
	}()

	if err := encoder.Encode(command); err != nil {
		return protocol.Reply{}, p.crashError(err)
	}

	select {
	case reply := <-ch:
		return reply, nil
	case <-p.exited:
		select {
		case reply := <-ch:
			return reply, nil
		default:
		}

		return protocol.Reply{}, p.crashError(nil)
	case <-ctx.Done():
		return protocol.Reply{}, ctx.Err()
	}
}

func (p *ProcessAdapter) readReplies(decoder *protocol.Decoder) {
	for {
		var reply protocol.Reply
		if err := decoder.Decode(&reply); err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("Test runner reply channel closed", "pid", p.PID(), "error", err)
			}

			return
		}

		p.mu.Lock()
		ch, ok := p.pending[reply.Kind]
		delete(p.pending, reply.Kind)
		p.mu.Unlock()

		if !ok {
			slog.Warn("Dropping unexpected test runner reply", "pid", p.PID(), "kind", reply.Kind)
			continue
		}

		ch <- reply
	}
}

func (p *ProcessAdapter) wait() {
	err := p.cmd.Wait()

	p.mu.Lock()
	disposed := p.disposed
	if p.crash == nil {
		p.crash = &ProcessCrashedError{
			PID:      p.cmd.Process.Pid,
			ExitCode: p.cmd.ProcessState.ExitCode(),
			Stderr:   p.output.Tail(),
			Cause:    err,
		}
	}
	p.mu.Unlock()

	closeAll(p.commands, p.replies)

	if disposed {
		slog.Debug("Test runner process exited", "pid", p.cmd.Process.Pid)
	} else {
		slog.Warn("Test runner process exited unexpectedly", "pid", p.cmd.Process.Pid, "error", err)
	}

	close(p.exited)
}

// crashError records cause as the crash reason unless one is already known
// and returns the recorded crash.
func (p *ProcessAdapter) crashError(cause error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.crash != nil {
		return p.crash
	}

	pid := 0
	if p.cmd != nil && p.cmd.Process != nil {
		pid = p.cmd.Process.Pid
	}

	tail := ""
	if p.output != nil {
		tail = p.output.Tail()
	}

	p.crash = &ProcessCrashedError{PID: pid, ExitCode: -1, Stderr: tail, Cause: cause}

	return p.crash
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
