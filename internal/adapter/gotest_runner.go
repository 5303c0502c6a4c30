package adapter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/mod/modfile"
	"golang.org/x/tools/cover"

	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/internal/protocol"
	"gooze.dev/pkg/mutexec/pkg/hitlimit"
)

// GoTestOptions configure the gotest runner.
type GoTestOptions struct {
	// Go is the go binary.
	Go string `mapstructure:"go"`
	// Packages are the package patterns to test.
	Packages []string `mapstructure:"packages"`
	// Args are appended to every go test invocation.
	Args []string `mapstructure:"args"`
	// CoverPkg is passed as -coverpkg during coverage runs.
	CoverPkg string `mapstructure:"coverpkg"`
}

// testEvent is one line of `go test -json`.
type testEvent struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test"`
	Elapsed float64 `json:"Elapsed"`
	Output  string  `json:"Output"`
}

type goTest struct {
	pkg  string
	name string
}

// GoTestRunner runs the tests of a Go module with `go test -json`. Each test
// is identified by its package path relative to the module followed by a dot
// and the test function name; root package tests use the bare name.
type GoTestRunner struct {
	workDir    string
	options    GoTestOptions
	modulePath string
	tests      []goTest
}

// NewGoTestRunner decodes raw options and returns a runner for workDir.
func NewGoTestRunner(workDir string, raw map[string]any) (*GoTestRunner, error) {
	var options GoTestOptions
	if err := mapstructure.Decode(raw, &options); err != nil {
		return nil, fmt.Errorf("decode gotest options: %w", err)
	}

	if options.Go == "" {
		options.Go = "go"
	}

	if len(options.Packages) == 0 {
		options.Packages = []string{"./..."}
	}

	if options.CoverPkg == "" {
		options.CoverPkg = "./..."
	}

	return &GoTestRunner{workDir: workDir, options: options}, nil
}

// Init reads the module path and lists the available tests.
func (r *GoTestRunner) Init(ctx context.Context) error {
	data, err := os.ReadFile(filepath.Join(r.workDir, "go.mod"))
	if err != nil {
		slog.Error("Failed to read go.mod", "dir", r.workDir, "error", err)
		return fmt.Errorf("read go.mod: %w", err)
	}

	r.modulePath = modfile.ModulePath(data)
	if r.modulePath == "" {
		return fmt.Errorf("no module path in %s", filepath.Join(r.workDir, "go.mod"))
	}

	args := append([]string{"test", "-json", "-list", "."}, r.options.Packages...)

	events, stderr, err := r.goTest(ctx, args, nil)
	if err != nil {
		slog.Error("Failed to list tests", "dir", r.workDir, "error", err, "stderr", stderr)
		return fmt.Errorf("list tests: %w", err)
	}

	r.tests = r.tests[:0]

	for _, event := range events {
		if event.Action != "output" || event.Test != "" {
			continue
		}

		name := strings.TrimSpace(event.Output)
		if strings.HasPrefix(name, "Test") && !strings.ContainsAny(name, " \t") {
			r.tests = append(r.tests, goTest{pkg: event.Package, name: name})
		}
	}

	slog.Debug("Listed go tests", "count", len(r.tests), "module", r.modulePath)

	return nil
}

// Run executes the tests selected by options.TestFilter, or all tests.
func (r *GoTestRunner) Run(ctx context.Context, options protocol.RunOptions) (m.RunResult, error) {
	selected := r.selectTests(options.TestFilter)

	var env []string
	if options.HitLimit > 0 {
		env = append(env, hitlimit.EnvHitLimit+"="+strconv.FormatInt(options.HitLimit, 10))
	}

	if options.Coverage {
		return r.runWithCoverage(ctx, selected, env)
	}

	result := m.RunResult{Status: m.RunComplete}

	for _, pkg := range packagesOf(selected) {
		tests, err := r.runPackage(ctx, pkg, namesIn(selected, pkg), env, "")
		if err != nil {
			return m.RunResult{Status: m.RunError, ErrorMessages: []string{err.Error()}}, nil
		}

		result.Tests = append(result.Tests, tests...)
	}

	return result, nil
}

// Dispose is a no-op; go test processes do not outlive a run.
func (r *GoTestRunner) Dispose(context.Context) error {
	return nil
}

// runWithCoverage runs every test on its own so that its coverage profile
// can be attributed to it.
func (r *GoTestRunner) runWithCoverage(ctx context.Context, selected []goTest, env []string) (m.RunResult, error) {
	profileDir, err := os.MkdirTemp("", "mutexec-cover-*")
	if err != nil {
		return m.RunResult{}, fmt.Errorf("create coverage dir: %w", err)
	}

	defer func() { _ = os.RemoveAll(profileDir) }()

	result := m.RunResult{Status: m.RunComplete, Coverage: m.CoverageByTest{}}

	for i, test := range selected {
		profile := filepath.Join(profileDir, fmt.Sprintf("%d.out", i))

		tests, err := r.runPackage(ctx, test.pkg, []string{test.name}, env, profile)
		if err != nil {
			return m.RunResult{Status: m.RunError, ErrorMessages: []string{err.Error()}}, nil
		}

		result.Tests = append(result.Tests, tests...)

		coverage, err := r.readProfile(profile)
		if err != nil {
			slog.Warn("No coverage for test", "test", r.testID(test), "error", err)
			continue
		}

		result.Coverage[r.testID(test)] = coverage
	}

	return result, nil
}

func (r *GoTestRunner) runPackage(ctx context.Context, pkg string, names, env []string, profile string) ([]m.TestResult, error) {
	args := []string{"test", "-json", "-count=1", "-run", runPattern(names)}
	if profile != "" {
		args = append(args, "-covermode=count", "-coverpkg="+r.options.CoverPkg, "-coverprofile="+profile)
	}

	args = append(args, r.options.Args...)
	args = append(args, pkg)

	events, stderr, err := r.goTest(ctx, args, env)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("run go test for %s: %w", pkg, err)
	}

	results := r.collectResults(pkg, events)

	// A package that fails without reporting tests did not build.
	if len(results) == 0 && err != nil {
		message := buildFailure(events, stderr)

		for _, name := range names {
			results = append(results, m.TestResult{
				Name:            r.testID(goTest{pkg: pkg, name: name}),
				Status:          m.TestFailed,
				FailureMessages: []string{message},
			})
		}
	}

	return results, nil
}

func (r *GoTestRunner) collectResults(pkg string, events []testEvent) []m.TestResult {
	output := make(map[string]*strings.Builder)

	var results []m.TestResult

	for _, event := range events {
		if event.Test == "" || strings.Contains(event.Test, "/") {
			continue
		}

		switch event.Action {
		case "output":
			b, ok := output[event.Test]
			if !ok {
				b = &strings.Builder{}
				output[event.Test] = b
			}

			b.WriteString(event.Output)
		case "pass", "fail", "skip":
			result := m.TestResult{
				Name:        r.testID(goTest{pkg: pkg, name: event.Test}),
				TimeSpentMs: time.Duration(event.Elapsed * float64(time.Second)).Milliseconds(),
			}

			switch event.Action {
			case "pass":
				result.Status = m.TestSuccess
			case "skip":
				result.Status = m.TestSkipped
			default:
				result.Status = m.TestFailed
				if b, ok := output[event.Test]; ok {
					result.FailureMessages = []string{strings.TrimSpace(b.String())}
				}
			}

			results = append(results, result)
		}
	}

	return results
}

func (r *GoTestRunner) readProfile(path string) (m.CoverageResult, error) {
	profiles, err := cover.ParseProfiles(path)
	if err != nil {
		return nil, err
	}

	coverage := make(m.CoverageResult, len(profiles))

	for _, profile := range profiles {
		file := m.Path(strings.TrimPrefix(strings.TrimPrefix(profile.FileName, r.modulePath), "/"))
		fc := m.FileCoverage{
			Statements: make(m.StatementMap, len(profile.Blocks)),
			Hits:       make(map[string]int64, len(profile.Blocks)),
		}

		for _, block := range profile.Blocks {
			id := fmt.Sprintf("%d.%d,%d.%d", block.StartLine, block.StartCol, block.EndLine, block.EndCol)
			fc.Statements[id] = m.Location{
				Start: m.Position{Line: block.StartLine, Column: block.StartCol - 1},
				End:   m.Position{Line: block.EndLine, Column: block.EndCol - 1},
			}
			fc.Hits[id] += int64(block.Count)
		}

		coverage[file] = fc
	}

	return coverage, nil
}

func (r *GoTestRunner) goTest(ctx context.Context, args, env []string) ([]testEvent, string, error) {
	cmd := exec.CommandContext(ctx, r.options.Go, args...)
	cmd.Dir = r.workDir
	cmd.Env = append(os.Environ(), env...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return parseEvents(stdout.Bytes()), stderr.String(), err
}

func (r *GoTestRunner) selectTests(filter []string) []goTest {
	if len(filter) == 0 {
		return r.tests
	}

	wanted := make(map[string]struct{}, len(filter))
	for _, id := range filter {
		wanted[id] = struct{}{}
	}

	var selected []goTest

	for _, test := range r.tests {
		if _, ok := wanted[r.testID(test)]; ok {
			selected = append(selected, test)
		}
	}

	return selected
}

func (r *GoTestRunner) testID(test goTest) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(test.pkg, r.modulePath), "/")
	if rel == "" {
		return test.name
	}

	return rel + "." + test.name
}

func parseEvents(out []byte) []testEvent {
	var events []testEvent

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || line[0] != '{' {
			continue
		}

		var event testEvent
		if err := sonic.Unmarshal(line, &event); err != nil {
			continue
		}

		events = append(events, event)
	}

	return events
}

func buildFailure(events []testEvent, stderr string) string {
	var b strings.Builder

	for _, event := range events {
		if event.Test == "" && (event.Action == "output" || event.Action == "build-output") {
			b.WriteString(event.Output)
		}
	}

	b.WriteString(stderr)

	return strings.TrimSpace(b.String())
}

func runPattern(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}

	return "^(" + strings.Join(quoted, "|") + ")$"
}

func packagesOf(tests []goTest) []string {
	seen := make(map[string]struct{})

	var pkgs []string

	for _, test := range tests {
		if _, ok := seen[test.pkg]; !ok {
			seen[test.pkg] = struct{}{}
			pkgs = append(pkgs, test.pkg)
		}
	}

	sort.Strings(pkgs)

	return pkgs
}

func namesIn(tests []goTest, pkg string) []string {
	var names []string

	for _, test := range tests {
		if test.pkg == pkg {
			names = append(names, test.name)
		}
	}

	return names
}
