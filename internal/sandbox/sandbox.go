// Package sandbox runs mutants in private copies of the project.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"gooze.dev/pkg/mutexec/internal/adapter"
	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/internal/runner"
)

var (
	// ErrMutantMismatch is returned when the sandboxed source does not hold
	// the mutant's original text at its range.
	ErrMutantMismatch = errors.New("mutant does not match source")
	// ErrUnknownFile is returned for a mutant in a file that was not copied.
	ErrUnknownFile = errors.New("file not in sandbox")
	// ErrRevertMismatch is returned when a reverted file no longer hashes to
	// the content it had before the mutant was applied.
	ErrRevertMismatch = errors.New("reverted file differs from original")
	// ErrInvalidProjectRoot is returned when the project root is not a directory.
	ErrInvalidProjectRoot = errors.New("project root is not a directory")
)

// Sandbox owns a working copy of the project and one test runner. It
// services one mutant at a time.
type Sandbox interface {
	ID() string
	WorkDir() m.Path
	Initialize(ctx context.Context) error
	Run(ctx context.Context, options runner.RunOptions) (m.RunResult, error)
	RunMutant(ctx context.Context, mutant m.TestableMutant) (m.RunResult, error)
	Dispose(ctx context.Context) error
}

// RunnerFactory builds the (decorated) test runner serving the sandbox
// sandboxID at workDir.
type RunnerFactory func(sandboxID string, workDir m.Path) runner.TestRunner

// Config describes how sandboxes are built and how mutant runs are budgeted.
type Config struct {
	ProjectRoot m.Path
	// Files to copy, relative to ProjectRoot. Empty means every file not
	// matched by Ignore.
	Files  []m.Path
	Ignore []string

	TimeoutFactor  float64
	FixedTimeout   time.Duration
	HitLimitFactor int64
	// TestFilter restricts mutant runs to the mutant's scoped tests.
	TestFilter bool
	// Selector, when set, writes a test selection fragment into the sandbox.
	Selector TestSelector

	RunnerFactory RunnerFactory
}

type sandbox struct {
	id     string
	config Config
	fs     adapter.SourceFSAdapter

	workDir   m.Path
	paths     map[m.Path]m.Path
	originals map[m.Path][]byte
	files     map[m.Path]m.File
	runner    runner.TestRunner
}

// New returns an uninitialized Sandbox.
func New(config Config, fs adapter.SourceFSAdapter) Sandbox {
	return &sandbox{
		id:        uuid.NewString(),
		config:    config,
		fs:        fs,
		paths:     make(map[m.Path]m.Path),
		originals: make(map[m.Path][]byte),
		files:     make(map[m.Path]m.File),
	}
}

func (s *sandbox) ID() string {
	return s.id
}

func (s *sandbox) WorkDir() m.Path {
	return s.workDir
}

// Initialize copies the project and starts the test runner.
func (s *sandbox) Initialize(ctx context.Context) error {
	info, err := s.fs.FileInfo(s.config.ProjectRoot)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidProjectRoot, s.config.ProjectRoot, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidProjectRoot, s.config.ProjectRoot)
	}

	files := s.config.Files
	if len(files) == 0 {
		listed, err := s.fs.ListFiles(s.config.ProjectRoot, s.config.Ignore)
		if err != nil {
			return err
		}

		files = listed
	}

	dir, err := s.fs.CreateTempDir("mutexec-sandbox-" + s.id[:8] + "-*")
	if err != nil {
		slog.Error("Failed to create sandbox directory", "sandbox", s.id, "error", err)
		return fmt.Errorf("create sandbox directory: %w", err)
	}

	s.workDir = dir

	if err := s.fs.CopyFiles(s.config.ProjectRoot, dir, files); err != nil {
		slog.Error("Failed to copy project into sandbox", "sandbox", s.id, "dir", dir, "error", err)
		return fmt.Errorf("copy project into sandbox: %w", err)
	}

	for _, file := range files {
		s.paths[file.Canonical()] = m.Path(filepath.Join(string(dir), filepath.FromSlash(string(file))))
	}

	slog.Debug("Sandbox created", "sandbox", s.id, "dir", dir, "files", len(files))

	s.runner = s.config.RunnerFactory(s.id, dir)

	if err := s.runner.Init(ctx); err != nil {
		slog.Error("Failed to initialize test runner", "sandbox", s.id, "error", err)
		return fmt.Errorf("initialize test runner: %w", err)
	}

	return nil
}

// Run runs the test runner on the unmodified sandbox.
func (s *sandbox) Run(ctx context.Context, options runner.RunOptions) (m.RunResult, error) {
	return s.runner.Run(ctx, options)
}

// RunMutant applies mutant, runs its scoped tests and restores the file,
// whatever the outcome of the run.
func (s *sandbox) RunMutant(ctx context.Context, mutant m.TestableMutant) (result m.RunResult, err error) {
	target, ok := s.paths[mutant.FileName.Canonical()]
	if !ok {
		return m.RunResult{}, fmt.Errorf("%w: %s", ErrUnknownFile, mutant.FileName)
	}

	original, err := s.original(target)
	if err != nil {
		return m.RunResult{}, err
	}

	mutated, err := Apply(original, mutant.Mutant)
	if err != nil {
		return m.RunResult{}, err
	}

	defer func() {
		if revertErr := s.revert(target, original); revertErr != nil {
			err = errors.Join(err, revertErr)
		}
	}()

	if err := s.fs.WriteFile(target, mutated); err != nil {
		slog.Error("Failed to write mutant", "sandbox", s.id, "mutant", mutant.ID, "error", err)
		return m.RunResult{}, fmt.Errorf("write mutant %s: %w", mutant.ID, err)
	}

	options := runner.RunOptions{
		Timeout:  ComputeTimeout(mutant.Scope.TimeSpentMs, s.config.TimeoutFactor, s.config.FixedTimeout),
		HitLimit: mutant.Scope.HitCount * s.config.HitLimitFactor,
	}

	if s.config.TestFilter {
		options.TestFilter = mutant.Scope.TestIDs

		if s.config.Selector != nil {
			if err := s.config.Selector.Write(s.fs, s.workDir, mutant.Scope.TestIDs); err != nil {
				return m.RunResult{}, fmt.Errorf("write test selection: %w", err)
			}
		}
	}

	slog.Debug("Running mutant", "sandbox", s.id, "mutant", mutant.ID, "timeout", options.Timeout, "tests", len(mutant.Scope.TestIDs))

	return s.runner.Run(ctx, options)
}

// Dispose stops the test runner and removes the working copy.
func (s *sandbox) Dispose(ctx context.Context) error {
	var errs []error

	if s.runner != nil {
		if err := s.runner.Dispose(ctx); err != nil {
			slog.Warn("Failed to dispose test runner", "sandbox", s.id, "error", err)
			errs = append(errs, err)
		}
	}

	if s.workDir != "" {
		if err := s.fs.RemoveAll(s.workDir); err != nil {
			slog.Warn("Failed to remove sandbox directory", "sandbox", s.id, "dir", s.workDir, "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *sandbox) original(target m.Path) ([]byte, error) {
	if content, ok := s.originals[target]; ok {
		return content, nil
	}

	content, err := s.fs.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}

	hash, err := s.fs.HashFile(target)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", target, err)
	}

	s.originals[target] = content
	s.files[target] = m.File{Path: target, Hash: hash}

	return content, nil
}

func (s *sandbox) revert(target m.Path, original []byte) error {
	var errs []error

	if err := s.fs.WriteFile(target, original); err != nil {
		slog.Error("Failed to revert mutant", "sandbox", s.id, "file", target, "error", err)
		errs = append(errs, fmt.Errorf("revert %s: %w", target, err))
	} else if err := s.verifyReverted(target); err != nil {
		slog.Error("Failed to verify reverted file", "sandbox", s.id, "file", target, "error", err)
		errs = append(errs, err)
	}

	if s.config.TestFilter && s.config.Selector != nil {
		if err := s.config.Selector.Clear(s.fs, s.workDir); err != nil {
			errs = append(errs, fmt.Errorf("clear test selection: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (s *sandbox) verifyReverted(target m.Path) error {
	hash, err := s.fs.HashFile(target)
	if err != nil {
		return fmt.Errorf("hash %s: %w", target, err)
	}

	if want := s.files[target].Hash; hash != want {
		return fmt.Errorf("%w: %s hashes to %s, want %s", ErrRevertMismatch, target, hash, want)
	}

	return nil
}

// Apply returns content with the mutant's range replaced by its replacement.
func Apply(content []byte, mutant m.Mutant) ([]byte, error) {
	start, end := mutant.Range[0], mutant.Range[1]
	if start < 0 || end < start || end > len(content) {
		return nil, fmt.Errorf("%w: mutant %s range %v outside file of %d bytes", ErrMutantMismatch, mutant.ID, mutant.Range, len(content))
	}

	if mutant.Original != "" && string(content[start:end]) != mutant.Original {
		return nil, fmt.Errorf("%w: mutant %s expected %q at %v, found %q", ErrMutantMismatch, mutant.ID, mutant.Original, mutant.Range, content[start:end])
	}

	mutated := make([]byte, 0, len(content)-(end-start)+len(mutant.Replacement))
	mutated = append(mutated, content[:start]...)
	mutated = append(mutated, mutant.Replacement...)
	mutated = append(mutated, content[end:]...)

	return mutated, nil
}

// ComputeTimeout is scopedTimeMs * factor + fixed.
func ComputeTimeout(scopedTimeMs int64, factor float64, fixed time.Duration) time.Duration {
	scaled := float64(scopedTimeMs) * factor * float64(time.Millisecond)

	return time.Duration(scaled) + fixed
}
