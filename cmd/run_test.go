package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/mutexec/internal/domain"
	domainmocks "gooze.dev/pkg/mutexec/internal/domain/mocks"
	m "gooze.dev/pkg/mutexec/internal/model"
)

func useWorkflow(t *testing.T, w domain.Workflow) {
	t.Helper()

	originalWorkflow := workflow
	workflow = w

	t.Cleanup(func() {
		workflow = originalWorkflow
		resetFlagBindings()
	})
}

// resetFlagBindings binds the config keys to fresh, unchanged flags so values
// parsed by one test do not leak into the next.
func resetFlagBindings() {
	configureRootFlags(&cobra.Command{})
	configureRunFlags(&cobra.Command{})
}

func newTestRootCmd(sub ...*cobra.Command) *cobra.Command {
	cmd := newRootCmd()
	cmd.AddCommand(sub...)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	return cmd
}

func TestParseShardFlag(t *testing.T) {
	tests := []struct {
		name      string
		shard     string
		wantIndex int
		wantTotal int
	}{
		{"empty string", "", 0, 1},
		{"valid 0/3", "0/3", 0, 3},
		{"valid 1/3", "1/3", 1, 3},
		{"valid 2/3", "2/3", 2, 3},
		{"invalid format", "invalid", 0, 1},
		{"zero total", "0/0", 0, 1},
		{"negative total", "0/-1", 0, 1},
		{"negative index", "-1/3", 0, 1},
		{"index >= total", "3/3", 0, 1},
		{"index > total", "5/3", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotIndex, gotTotal := parseShardFlag(tt.shard)
			assert.Equal(t, tt.wantIndex, gotIndex, "index")
			assert.Equal(t, tt.wantTotal, gotTotal, "total")
		})
	}
}

func TestRunCmd_PassesPlanAndOutput(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)

	mockWorkflow.EXPECT().Run(mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Plan == m.Path("plan.yaml") &&
			args.Reports == m.Path("out/reports") &&
			args.ShardIndex == 0 &&
			args.TotalShardCount == 1
	})).Return(nil)

	cmd := newTestRootCmd(newRunCmd())
	cmd.SetArgs([]string{"run", "-o", "out/reports", "plan.yaml"})

	require.NoError(t, cmd.Execute())
}

func TestRunCmd_WithSharding(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)

	mockWorkflow.EXPECT().Run(mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.ShardIndex == 1 && args.TotalShardCount == 3
	})).Return(nil)

	cmd := newTestRootCmd(newRunCmd())
	cmd.SetArgs([]string{"run", "--shard", "1/3", "plan.yaml"})

	require.NoError(t, cmd.Execute())
}

func TestRunCmd_InvalidShardRunsEverything(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)

	mockWorkflow.EXPECT().Run(mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.ShardIndex == 0 && args.TotalShardCount == 1
	})).Return(nil)

	cmd := newTestRootCmd(newRunCmd())
	cmd.SetArgs([]string{"run", "--shard", "4/2", "plan.yaml"})

	require.NoError(t, cmd.Execute())
}

func TestRunCmd_FlagsFeedConfig(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)

	mockWorkflow.EXPECT().Run(mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.MetricsFile == "run.prom"
	})).Return(nil)

	cmd := newTestRootCmd(newRunCmd())
	cmd.SetArgs([]string{
		"run",
		"-c", "3",
		"--timeout-ms", "250",
		"--timeout-factor", "2.5",
		"--test-filter=false",
		"--runner", "command",
		"--ignore", "vendor/**",
		"--metrics-file", "run.prom",
		"plan.yaml",
	})

	require.NoError(t, cmd.Execute())

	assert.Equal(t, 3, viper.GetInt(concurrencyConfigKey))
	assert.Equal(t, 250, viper.GetInt(timeoutMsConfigKey))
	assert.InDelta(t, 2.5, viper.GetFloat64(timeoutFactorConfigKey), 1e-9)
	assert.False(t, viper.GetBool(testFilterConfigKey))
	assert.Equal(t, "command", viper.GetString(runnerNameKey))
	assert.Equal(t, []string{"vendor/**"}, viper.GetStringSlice(sandboxIgnoreKey))
}

func TestRunCmd_RequiresPlan(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)

	cmd := newTestRootCmd(newRunCmd())
	cmd.SetArgs([]string{"run"})

	require.Error(t, cmd.Execute())
	mockWorkflow.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestRunCmd_PropagatesWorkflowError(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)

	mockWorkflow.EXPECT().Run(mock.Anything, mock.Anything).Return(domain.ErrBaselineFailed)

	cmd := newTestRootCmd(newRunCmd())
	cmd.SetArgs([]string{"run", "plan.yaml"})

	err := cmd.Execute()
	require.ErrorIs(t, err, domain.ErrBaselineFailed)
}

func TestRunCmd_UsesCommandContext(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)

	type ctxKey struct{}

	mockWorkflow.EXPECT().Run(mock.Anything, mock.Anything).RunAndReturn(func(ctx context.Context, _ domain.RunArgs) error {
		if ctx.Value(ctxKey{}) != "marker" {
			return errors.New("command context not forwarded")
		}

		return nil
	})

	cmd := newTestRootCmd(newRunCmd())
	cmd.SetArgs([]string{"run", "plan.yaml"})

	require.NoError(t, cmd.ExecuteContext(context.WithValue(context.Background(), ctxKey{}, "marker")))
}
