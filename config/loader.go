package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. ENSEMBLE_RUN_FOLDS
const EnvPrefix = "ENSEMBLE"

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"test-size":    "run.test_size",
	"folds":        "run.folds",
	"metric":       "run.metric",
	"policy":       "run.policy",
	"parallelism":  "run.parallelism",
	"candidates":   "run.candidates",
	"bagging":      "bagging.enabled",
	"members":      "bagging.members",
	"seed":         "bagging.seed",
	"json":         "output.json",
	"plot":         "output.plot",
	"metrics-file": "output.metrics_file",
	"profile":      "output.profile",
	"redis-addr":   "redis.addr",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
}

// Option adjusts the loader before anything is read
type Option func(v *viper.Viper)

// WithDefault replaces the built in default of key, e.g. a subcommand preferring another metric
func WithDefault(key string, value any) Option {
	return func(v *viper.Viper) {
		v.SetDefault(key, value)
	}
}

// Load reads configuration from configPath, or from ensemble.yaml in the working directory when
// empty. Environment variables override the file and flags that were set override both.
func Load(configPath string, flags *pflag.FlagSet, opts ...Option) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("ensemble")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	setDefaults(v)
	for _, opt := range opts {
		opt(v)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return parseConfig(v)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("run.test_size", def.Run.TestSize)
	v.SetDefault("run.folds", def.Run.Folds)
	v.SetDefault("run.metric", def.Run.Metric)
	v.SetDefault("run.policy", def.Run.Policy)
	v.SetDefault("run.parallelism", def.Run.Parallelism)
	v.SetDefault("run.candidates", def.Run.Candidates)

	v.SetDefault("models.seasonal_period", def.Models.SeasonalPeriod)
	v.SetDefault("models.ar.p", def.Models.AR.P)
	v.SetDefault("models.ar.d", def.Models.AR.D)
	v.SetDefault("models.ar.q", def.Models.AR.Q)
	v.SetDefault("models.arma.p", def.Models.ARMA.P)
	v.SetDefault("models.arma.d", def.Models.ARMA.D)
	v.SetDefault("models.arma.q", def.Models.ARMA.Q)
	v.SetDefault("models.arima.p", def.Models.ARIMA.P)
	v.SetDefault("models.arima.d", def.Models.ARIMA.D)
	v.SetDefault("models.arima.q", def.Models.ARIMA.Q)
	v.SetDefault("models.ets.trend", def.Models.ETS.Trend)
	v.SetDefault("models.ets.damped", def.Models.ETS.Damped)
	v.SetDefault("models.ets.seasonal_period", def.Models.ETS.SeasonalPeriod)
	v.SetDefault("models.ets.alpha", def.Models.ETS.Alpha)
	v.SetDefault("models.ets.beta", def.Models.ETS.Beta)
	v.SetDefault("models.ets.gamma", def.Models.ETS.Gamma)
	v.SetDefault("models.ets.phi", def.Models.ETS.Phi)
	v.SetDefault("models.ets.max_evaluations", def.Models.ETS.MaxEvaluations)

	v.SetDefault("bagging.enabled", def.Bagging.Enabled)
	v.SetDefault("bagging.members", def.Bagging.Members)
	v.SetDefault("bagging.seed", def.Bagging.Seed)
	v.SetDefault("bagging.resample", def.Bagging.Resample)
	v.SetDefault("bagging.aggregator", def.Bagging.Aggregator)

	v.SetDefault("output.json", def.Output.JSON)
	v.SetDefault("output.plot", def.Output.Plot)
	v.SetDefault("output.metrics_file", def.Output.MetricsFile)
	v.SetDefault("output.profile", def.Output.Profile)

	v.SetDefault("redis.addr", def.Redis.Addr)
	v.SetDefault("redis.password", def.Redis.Password)
	v.SetDefault("redis.db", def.Redis.DB)
	v.SetDefault("redis.prefix", def.Redis.Prefix)
	v.SetDefault("redis.ttl", def.Redis.TTL)

	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.output_path", def.Logging.OutputPath)
}

func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
