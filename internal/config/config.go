// Package config loads runtime settings from an optional YAML file and
// GENOTYPE_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/gtensor/internal/backend/chunked"
	"github.com/born-ml/gtensor/internal/engine"
	"github.com/born-ml/gtensor/internal/parallel"
)

// Prefix is the environment variable prefix, as in GENOTYPE_WORKERS.
const Prefix = "GENOTYPE"

// Config holds every tunable of the library and CLI.
type Config struct {
	// Workers bounds kernel goroutines and concurrently computed blocks.
	// Zero means one per CPU.
	Workers int `envconfig:"WORKERS" yaml:"workers"`

	// MinVariantsPerWorker is the smallest run of variants a kernel hands to
	// one goroutine.
	MinVariantsPerWorker int `envconfig:"MIN_VARIANTS_PER_WORKER" yaml:"min_variants_per_worker"`

	// SplitEvery is the fan-in of chunked tree reductions.
	SplitEvery int `envconfig:"SPLIT_EVERY" yaml:"split_every"`

	BlockRetries         int           `envconfig:"BLOCK_RETRIES" yaml:"block_retries"`
	RetryInitialInterval time.Duration `envconfig:"RETRY_INITIAL_INTERVAL" yaml:"retry_initial_interval"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Workers:              0,
		MinVariantsPerWorker: parallel.DefaultConfig().MinChunkSize,
		SplitEvery:           chunked.DefaultSplitEvery,
		BlockRetries:         0,
		RetryInitialInterval: engine.DefaultOptions().RetryInitialInterval,
		LogLevel:             "info",
	}
}

// Load starts from Default, overlays the YAML file at path when path is not
// empty, then overlays the environment. Unset variables keep earlier values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings outside their allowed ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.MinVariantsPerWorker < 1 {
		errs = append(errs, fmt.Errorf("min_variants_per_worker must be >= 1, got %d", c.MinVariantsPerWorker))
	}
	if c.SplitEvery < 2 {
		errs = append(errs, fmt.Errorf("split_every must be >= 2, got %d", c.SplitEvery))
	}
	if c.BlockRetries < 0 {
		errs = append(errs, fmt.Errorf("block_retries must be >= 0, got %d", c.BlockRetries))
	}
	if c.RetryInitialInterval <= 0 {
		errs = append(errs, fmt.Errorf("retry_initial_interval must be positive, got %s", c.RetryInitialInterval))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// EngineOptions returns the local engine settings.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		Workers:              c.workers(),
		BlockRetries:         c.BlockRetries,
		RetryInitialInterval: c.RetryInitialInterval,
	}
}

// Apply installs the process-wide kernel and reduction settings.
func (c Config) Apply() {
	workers := c.workers()
	parallel.SetDefault(parallel.Config{
		Enabled:      workers > 1,
		NumWorkers:   workers,
		MinChunkSize: c.MinVariantsPerWorker,
	})
	chunked.SetSplitEvery(c.SplitEvery)
	slog.Debug("config applied", "workers", workers, "split_every", c.SplitEvery,
		"block_retries", c.BlockRetries)
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}
