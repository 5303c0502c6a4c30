// Package worker hosts a test runner inside a subprocess and answers the
// commands sent by runner.ProcessAdapter.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/internal/protocol"
	"gooze.dev/pkg/mutexec/internal/runner"
)

// RunnerFactory builds the test runner named by a start command.
type RunnerFactory func(start protocol.StartPayload) (runner.TestRunner, error)

// ErrNotStarted is reported when a command arrives before start.
var ErrNotStarted = errors.New("worker received a command before start")

// Serve processes commands from in until a dispose command or the end of
// input, writing replies to out. Commands are handled one at a time.
func Serve(ctx context.Context, in io.Reader, out io.Writer, factory RunnerFactory) error {
	decoder := protocol.NewDecoder(in)
	encoder := protocol.NewEncoder(out)

	var (
		testRunner runner.TestRunner
		startErr   error
	)

	for {
		var command protocol.Command
		if err := decoder.Decode(&command); err != nil {
			if errors.Is(err, io.EOF) {
				slog.Debug("Command channel closed, shutting down")
				return dispose(ctx, testRunner)
			}

			slog.Error("Failed to read command", "error", err)

			return fmt.Errorf("read command: %w", err)
		}

		switch command.Kind {
		case protocol.KindStart:
			testRunner, startErr = start(command.Start, factory)

		case protocol.KindInit:
			reply := protocol.Reply{Kind: protocol.KindInitDone}

			switch {
			case startErr != nil:
				reply.Error = startErr.Error()
			case testRunner == nil:
				reply.Error = ErrNotStarted.Error()
			default:
				if err := testRunner.Init(ctx); err != nil {
					reply.Error = err.Error()
				}
			}

			if err := encoder.Encode(reply); err != nil {
				return fmt.Errorf("write init reply: %w", err)
			}

		case protocol.KindRun:
			reply := run(ctx, testRunner, startErr, command.Run)
			if err := encoder.Encode(reply); err != nil {
				return fmt.Errorf("write run reply: %w", err)
			}

		case protocol.KindDispose:
			reply := protocol.Reply{Kind: protocol.KindDisposeDone}
			if err := dispose(ctx, testRunner); err != nil {
				reply.Error = err.Error()
			}

			if err := encoder.Encode(reply); err != nil {
				return fmt.Errorf("write dispose reply: %w", err)
			}

			return nil

		default:
			slog.Warn("Ignoring unknown command", "kind", command.Kind)
		}
	}
}

func start(payload *protocol.StartPayload, factory RunnerFactory) (runner.TestRunner, error) {
	if payload == nil {
		return nil, errors.New("start command without payload")
	}

	testRunner, err := factory(*payload)
	if err != nil {
		slog.Error("Failed to create test runner", "runner", payload.RunnerName, "error", err)
		return nil, fmt.Errorf("create test runner %q: %w", payload.RunnerName, err)
	}

	slog.Debug("Created test runner", "runner", payload.RunnerName, "dir", payload.WorkDir)

	return testRunner, nil
}

func run(ctx context.Context, testRunner runner.TestRunner, startErr error, options *protocol.RunOptions) protocol.Reply {
	reply := protocol.Reply{Kind: protocol.KindResult}

	switch {
	case startErr != nil:
		reply.Error = startErr.Error()
		return reply
	case testRunner == nil:
		reply.Error = ErrNotStarted.Error()
		return reply
	}

	var opts protocol.RunOptions
	if options != nil {
		opts = *options
	}

	result, err := testRunner.Run(ctx, opts)
	if err != nil {
		result = m.RunResult{Status: m.RunError, ErrorMessages: []string{err.Error()}}
	}

	reply.Result = &result

	return reply
}

func dispose(ctx context.Context, testRunner runner.TestRunner) error {
	if testRunner == nil {
		return nil
	}

	return testRunner.Dispose(ctx)
}
