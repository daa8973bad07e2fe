// Package config loads the settings of a run from a file, the environment and command line flags
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aouyang1/go-ensemble"
	"github.com/aouyang1/go-ensemble/bagging"
	"github.com/aouyang1/go-ensemble/models"
	"github.com/aouyang1/go-ensemble/score"
)

var (
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// Config is the full set of settings of the ensemble command
type Config struct {
	Run     RunConfig     `mapstructure:"run"`
	Models  models.Config `mapstructure:"models"`
	Bagging BaggingConfig `mapstructure:"bagging"`
	Output  OutputConfig  `mapstructure:"output"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// RunConfig controls the split, cross validation and walk forward
type RunConfig struct {
	TestSize    int      `mapstructure:"test_size"`
	Folds       int      `mapstructure:"folds"`
	Metric      string   `mapstructure:"metric"`
	Policy      string   `mapstructure:"policy"` // refit, reuse or empty to follow bagging
	Parallelism int      `mapstructure:"parallelism"`
	Candidates  []string `mapstructure:"candidates"`
}

type BaggingConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Members    int    `mapstructure:"members"`
	Seed       uint64 `mapstructure:"seed"`
	Resample   string `mapstructure:"resample"`   // residuals, observations
	Aggregator string `mapstructure:"aggregator"` // mean, median
}

// OutputConfig names optional artifacts, empty paths are skipped
type OutputConfig struct {
	JSON        string `mapstructure:"json"`
	Plot        string `mapstructure:"plot"`
	MetricsFile string `mapstructure:"metrics_file"`
	Profile     string `mapstructure:"profile"` // cpu, mem or empty
}

// RedisConfig enables the redis sink when Addr is set
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
}

func defaultCandidates() []string {
	names := make([]string, len(models.Names))
	for i, n := range models.Names {
		names[i] = n.String()
	}
	return names
}

// DefaultConfig returns the settings used when nothing overrides them
func DefaultConfig() *Config {
	bag := bagging.NewDefaultOptions()
	return &Config{
		Run: RunConfig{
			TestSize:   ensemble.DefaultTestSize,
			Folds:      ensemble.DefaultFolds,
			Metric:     ensemble.DefaultMetric.String(),
			Candidates: defaultCandidates(),
		},
		Models: *models.NewDefaultConfig(),
		Bagging: BaggingConfig{
			Members:    bag.Members,
			Seed:       bag.Seed,
			Resample:   bag.Resample.String(),
			Aggregator: bag.Aggregator.String(),
		},
		Redis: RedisConfig{
			Prefix: "ensemble",
			TTL:    24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}

// Validate checks what Options cannot, the rest is checked when the engine is built
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if _, err := c.Bagging.Options(); err != nil {
		return fmt.Errorf("bagging config: %w", err)
	}
	if _, err := score.ParseMetric(c.Run.Metric); err != nil {
		return fmt.Errorf("run config: %w", err)
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("%q, %w", c.Level, ErrInvalidLogLevel)
	}
	switch strings.ToLower(c.Format) {
	case "json", "console", "pretty":
	default:
		return fmt.Errorf("%q, %w", c.Format, ErrInvalidLogFormat)
	}
	return nil
}

// Options converts the bagging section into ensemble options
func (c BaggingConfig) Options() (*bagging.Options, error) {
	resample, err := bagging.ParseResampler(c.Resample)
	if err != nil {
		return nil, err
	}
	agg, err := bagging.ParseAggregator(c.Aggregator)
	if err != nil {
		return nil, err
	}
	return &bagging.Options{
		Members:    c.Members,
		Seed:       c.Seed,
		Resample:   resample,
		Aggregator: agg,
	}, nil
}

// Options builds the engine options, logger and metrics are left for the caller to set
func (c *Config) Options() (*ensemble.Options, error) {
	bag, err := c.Bagging.Options()
	if err != nil {
		return nil, err
	}
	modelCfg := c.Models
	return &ensemble.Options{
		TestSize:       c.Run.TestSize,
		Folds:          c.Run.Folds,
		Metric:         score.Metric(c.Run.Metric),
		Bagging:        c.Bagging.Enabled,
		BaggingOptions: bag,
		Policy:         c.Run.Policy,
		Parallelism:    c.Run.Parallelism,
		ModelConfig:    &modelCfg,
		Candidates:     c.Run.Candidates,
	}, nil
}
