// Package config loads daemon configuration from flags, environment
// variables, and an optional YAML file, layered with spf13/viper the way
// petabytecl-gaz/config/viper wraps it, then validated with
// go-playground/validator/v10 (same as petabytecl-gaz/config).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every tunable named in spec §6/§9: HTTP port, DB URL, the
// three background loops' cadence, and the container runtime binary.
type Config struct {
	HTTPPort int    `mapstructure:"http_port" validate:"required,gte=1,lte=65535"`
	DBURL    string `mapstructure:"db_url" validate:"required"`

	RunnerBatchSize    int           `mapstructure:"runner_batch_size" validate:"required,gte=1"`
	RunnerIdleInterval time.Duration `mapstructure:"runner_idle_interval" validate:"required"`

	TrackerActiveInterval time.Duration `mapstructure:"tracker_active_interval" validate:"required"`
	TrackerIdleInterval   time.Duration `mapstructure:"tracker_idle_interval" validate:"required"`

	SchedulerTickInterval  time.Duration `mapstructure:"scheduler_tick_interval" validate:"required"`
	SchedulerEmptyInterval time.Duration `mapstructure:"scheduler_empty_interval" validate:"required"`
	StopGraceTimeout       time.Duration `mapstructure:"stop_grace_timeout" validate:"required"`

	ContainerRuntimeBin string `mapstructure:"container_runtime_bin" validate:"required"`

	LogLevel  string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"required,oneof=console json"`
}

// Defaults returns the spec-mandated defaults: HTTP on 0.0.0.0:13939 (§6),
// sqlite://./db.sqlite?mode=rwc (§6), runner batch 5 / 10s backoff (§4.5),
// tracker 2s active / 10s idle (§4.6), scheduler ~1s tick / 5s empty (§4.7),
// 3s graceful-stop timeout (§4.3 stop_job), docker as the runtime binary.
func Defaults() Config {
	return Config{
		HTTPPort:               13939,
		DBURL:                  "sqlite://./db.sqlite?mode=rwc",
		RunnerBatchSize:        5,
		RunnerIdleInterval:     10 * time.Second,
		TrackerActiveInterval:  2 * time.Second,
		TrackerIdleInterval:    10 * time.Second,
		SchedulerTickInterval:  1 * time.Second,
		SchedulerEmptyInterval: 5 * time.Second,
		StopGraceTimeout:       3 * time.Second,
		ContainerRuntimeBin:    "docker",
		LogLevel:               "info",
		LogFormat:              "console",
	}
}

// Flags registers CLI flags for every Config field onto fs, defaulting to
// the values already present in cfg (normally Defaults()).
func Flags(cfg *Config, fs *pflag.FlagSet) {
	fs.IntVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "HTTP API port")
	fs.StringVar(&cfg.DBURL, "db-url", cfg.DBURL, "Database connection URL")
	fs.IntVar(&cfg.RunnerBatchSize, "runner-batch-size", cfg.RunnerBatchSize, "Max pending jobs launched per runner iteration")
	fs.DurationVar(&cfg.RunnerIdleInterval, "runner-idle-interval", cfg.RunnerIdleInterval, "Runner sleep after an empty/error poll")
	fs.DurationVar(&cfg.TrackerActiveInterval, "tracker-active-interval", cfg.TrackerActiveInterval, "Tracker sleep between successful polls")
	fs.DurationVar(&cfg.TrackerIdleInterval, "tracker-idle-interval", cfg.TrackerIdleInterval, "Tracker sleep after an empty/error poll")
	fs.DurationVar(&cfg.SchedulerTickInterval, "scheduler-tick-interval", cfg.SchedulerTickInterval, "Scheduler evaluation cadence")
	fs.DurationVar(&cfg.SchedulerEmptyInterval, "scheduler-empty-interval", cfg.SchedulerEmptyInterval, "Scheduler sleep when the working set is empty")
	fs.DurationVar(&cfg.StopGraceTimeout, "stop-grace-timeout", cfg.StopGraceTimeout, "Graceful container stop timeout (validated only; job stops use a fixed 3s timeout)")
	fs.StringVar(&cfg.ContainerRuntimeBin, "container-runtime-bin", cfg.ContainerRuntimeBin, "Container runtime CLI binary")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: console, json")
}

// Load layers defaults, an optional YAML file at configPath, the
// BATCHMAN_-prefixed environment, and already-parsed flags (via v, which
// the caller must have bound to fs with viper.BindPFlags) into a validated
// Config.
func Load(v *viper.Viper, configPath string) (Config, error) {
	defaults := Defaults()
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix("BATCHMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := defaults
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	// Flags are bound under dashed keys ("http-port") while the struct tags
	// use underscores ("http_port"), so explicitly set flags and their
	// matching environment variables are copied across as overrides.
	overrides := viper.New()
	for _, key := range v.AllKeys() {
		if strings.Contains(key, "-") && v.IsSet(key) {
			overrides.Set(strings.ReplaceAll(key, "-", "_"), v.Get(key))
		}
	}
	if err := overrides.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
