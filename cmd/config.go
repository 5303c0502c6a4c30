package cmd

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "mutexec"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName         = "output"
	concurrencyFlagName    = "concurrency"
	shardFlagName          = "shard"
	timeoutMsFlagName      = "timeout-ms"
	timeoutFactorFlagName  = "timeout-factor"
	testFilterFlagName     = "test-filter"
	runnerFlagName         = "runner"
	ignoreFlagName         = "ignore"
	metricsFileFlagName    = "metrics-file"
	verboseFlagName        = "verbose"
	concurrencyConfigKey   = "run.concurrency"
	timeoutMsConfigKey     = "run.timeout_ms"
	timeoutFactorConfigKey = "run.timeout_factor"
	testFilterConfigKey    = "run.test_filter"
	initialTimeoutKey      = "run.initial_timeout"
	hitLimitFactorKey      = "run.hit_limit_factor"
	runnerNameKey          = "runner.name"
	runnerCommandKey       = "runner.command"
	runnerOptionsKey       = "runner.options"
	sandboxIgnoreKey       = "sandbox.ignore"
	metricsFileKey         = "metrics.file"

	defaultReportsDir     = ".mutexec-reports"
	defaultConcurrency    = 0
	defaultTimeoutMs      = 5000
	defaultTimeoutFactor  = 1.5
	defaultTestFilter     = true
	defaultInitialTimeout = 5 * time.Minute
	defaultHitLimitFactor = 100
	defaultRunnerName     = "gotest"

	envPrefix = "MUTEXEC"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".mutexec.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// configEnvReplacer maps config keys onto environment variable names.
var configEnvReplacer = strings.NewReplacer("-", "_", ".", "_")

// defaultSandboxIgnore lists paths never copied into a sandbox.
var defaultSandboxIgnore = []string{".git/**", "node_modules/**", ".mutexec-*/**"}

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(configEnvReplacer)

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultReportsDir)
	viper.SetDefault(concurrencyConfigKey, defaultConcurrency)
	viper.SetDefault(timeoutMsConfigKey, defaultTimeoutMs)
	viper.SetDefault(timeoutFactorConfigKey, defaultTimeoutFactor)
	viper.SetDefault(testFilterConfigKey, defaultTestFilter)
	viper.SetDefault(initialTimeoutKey, defaultInitialTimeout.String())
	viper.SetDefault(hitLimitFactorKey, defaultHitLimitFactor)
	viper.SetDefault(runnerNameKey, defaultRunnerName)
	viper.SetDefault(runnerCommandKey, []string{})
	viper.SetDefault(runnerOptionsKey, map[string]any{})
	viper.SetDefault(sandboxIgnoreKey, defaultSandboxIgnore)
	viper.SetDefault(metricsFileKey, "")

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}

	return parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	setLogger(logWriter, logLevel(verbose))
}

// configureWorkerLogger sends worker logs to w, which the parent forwards
// into its own log.
func configureWorkerLogger(w io.Writer, verbose bool) {
	setLogger(w, logLevel(verbose))
}

func setLogger(w io.Writer, level slog.Level) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

// initialTimeout reads run.initial_timeout, accepting a duration string or
// a bare number of seconds.
func initialTimeout() time.Duration {
	raw := strings.TrimSpace(viper.GetString(initialTimeoutKey))
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultInitialTimeout
	}

	return d
}
