package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures the server runtime parameters.
type Config struct {
	ListenAddress       string        `mapstructure:"listen_address"`
	LogLevel            string        `mapstructure:"log_level"`
	StatsDBPath         string        `mapstructure:"stats_db_path"`
	MessageRate         float64       `mapstructure:"message_rate"`
	MessageBurst        int           `mapstructure:"message_burst"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
	Runner              RunnerConfig  `mapstructure:"runner"`
}

// RunnerConfig describes the external code execution service.
type RunnerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

const (
	defaultListenAddress       = ":8080"
	defaultLogLevel            = "info"
	defaultStatsDBPath         = "data/coderoom-stats.db"
	defaultMessageRate         = 100.0
	defaultMessageBurst        = 200
	defaultShutdownGracePeriod = 10 * time.Second
	defaultRunnerURL           = "https://emkc.org/api/v2/piston/execute"
	defaultRunnerTimeout       = 60 * time.Second
)

// Load reads configuration from the provided file path (if any) and the environment.
// Environment variables are prefixed with CODEROOM_ and can override file values.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CODEROOM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("listen_address", defaultListenAddress)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("stats_db_path", defaultStatsDBPath)
	v.SetDefault("message_rate", defaultMessageRate)
	v.SetDefault("message_burst", defaultMessageBurst)
	v.SetDefault("shutdown_grace_period", defaultShutdownGracePeriod.String())
	v.SetDefault("runner.url", defaultRunnerURL)
	v.SetDefault("runner.timeout", defaultRunnerTimeout.String())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Viper leaves durations as strings; normalize them here.
	if v.IsSet("shutdown_grace_period") {
		dur, err := time.ParseDuration(v.GetString("shutdown_grace_period"))
		if err != nil {
			return Config{}, fmt.Errorf("invalid shutdown_grace_period: %w", err)
		}
		cfg.ShutdownGracePeriod = dur
	}
	if v.IsSet("runner.timeout") {
		dur, err := time.ParseDuration(v.GetString("runner.timeout"))
		if err != nil {
			return Config{}, fmt.Errorf("invalid runner.timeout: %w", err)
		}
		cfg.Runner.Timeout = dur
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaultListenAddress
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.StatsDBPath == "" {
		cfg.StatsDBPath = defaultStatsDBPath
	}
	if cfg.MessageRate <= 0 {
		cfg.MessageRate = defaultMessageRate
	}
	if cfg.MessageBurst <= 0 {
		cfg.MessageBurst = defaultMessageBurst
	}
	if cfg.Runner.URL == "" {
		cfg.Runner.URL = defaultRunnerURL
	}

	return cfg, nil
}
