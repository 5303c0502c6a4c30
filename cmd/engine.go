package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"

	"gooze.dev/pkg/mutexec/internal/adapter"
	"gooze.dev/pkg/mutexec/internal/domain"
	"gooze.dev/pkg/mutexec/internal/metrics"
	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/internal/runner"
	"gooze.dev/pkg/mutexec/internal/sandbox"
)

// newCoordinator wires the sandbox pool for plan from the current config.
func newCoordinator(plan m.Plan, mt *metrics.Metrics) domain.Coordinator {
	config := sandboxConfig(plan, workerProcessConfig(), mt)

	return domain.NewCoordinator(domain.CoordinatorConfig{
		Concurrency:    viper.GetInt(concurrencyConfigKey),
		InitialTimeout: initialTimeout(),
		NewSandbox: func() sandbox.Sandbox {
			return sandbox.New(config, fsAdapter)
		},
		Metrics: mt,
	})
}

// workerProcessConfig describes the test runner subprocess. Without an
// explicit runner.command the engine re-executes itself as a worker.
func workerProcessConfig() runner.ProcessConfig {
	command := viper.GetStringSlice(runnerCommandKey)
	if len(command) == 0 {
		executable, err := os.Executable()
		if err != nil {
			slog.Warn("Failed to resolve executable, using argv[0]", "error", err)

			executable = os.Args[0]
		}

		command = []string{executable, workerCmdName}
	}

	return runner.ProcessConfig{
		Command:    command,
		RunnerName: viper.GetString(runnerNameKey),
		Options:    viper.GetStringMap(runnerOptionsKey),
	}
}

func sandboxConfig(plan m.Plan, process runner.ProcessConfig, mt *metrics.Metrics) sandbox.Config {
	config := sandbox.Config{
		ProjectRoot:    plan.ProjectRoot,
		Files:          plan.Files,
		Ignore:         viper.GetStringSlice(sandboxIgnoreKey),
		TimeoutFactor:  viper.GetFloat64(timeoutFactorConfigKey),
		FixedTimeout:   time.Duration(viper.GetInt64(timeoutMsConfigKey)) * time.Millisecond,
		HitLimitFactor: viper.GetInt64(hitLimitFactorKey),
		TestFilter:     viper.GetBool(testFilterConfigKey),
		RunnerFactory: func(sandboxID string, workDir m.Path) runner.TestRunner {
			cfg := process
			cfg.WorkDir = string(workDir)
			cfg.Sandbox = sandboxID

			return runner.NewResilientRunner(
				runner.NewProcessFactory(cfg),
				runner.WithRestartHook(mt.RunnerRestarted),
			)
		},
	}

	// Command runners read the test selection from the sandbox.
	if process.RunnerName == adapter.RunnerCommand {
		config.Selector = sandbox.FileSelector{}
	}

	return config
}
