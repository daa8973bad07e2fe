package ensemble

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-ensemble/bagging"
	"github.com/aouyang1/go-ensemble/crossval"
	"github.com/aouyang1/go-ensemble/metrics"
	"github.com/aouyang1/go-ensemble/models"
	"github.com/aouyang1/go-ensemble/score"
	"github.com/aouyang1/go-ensemble/walkforward"
	"github.com/rs/zerolog"
)

const (
	DefaultTestSize = 342
	DefaultFolds    = 10
	DefaultMetric   = score.MAE
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidTestSize      = errors.New("test size must be positive")
)

// Options configures model selection and the walk forward run. The zero values of Parallelism,
// Policy and Candidates resolve to GOMAXPROCS workers, the policy matching Bagging and every
// strategy.
type Options struct {
	// TestSize is the number of trailing observations held out for the walk forward run
	TestSize int
	Folds    int
	Metric   score.Metric

	// Bagging wraps every candidate in a bootstrap aggregated ensemble
	Bagging        bool
	BaggingOptions *bagging.Options

	// Policy is "refit", "reuse" or empty to refit plain strategies and reuse bagged ones
	Policy      string
	Parallelism int

	ModelConfig *models.Config
	Candidates  []string

	Logger  zerolog.Logger
	Metrics *metrics.Recorder

	// Reservoir is an optional external runner compared against the selected strategy
	Reservoir       ReservoirRunner
	ReservoirConfig map[string]any
}

// NewDefaultOptions holds out the last 342 observations, runs 10 folds and selects on mean
// absolute error across all five strategies
func NewDefaultOptions() *Options {
	return &Options{
		TestSize:       DefaultTestSize,
		Folds:          DefaultFolds,
		Metric:         DefaultMetric,
		BaggingOptions: bagging.NewDefaultOptions(),
		ModelConfig:    models.NewDefaultConfig(),
		Logger:         zerolog.Nop(),
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w, %w", ErrInvalidConfiguration, err)
}

// resolved is the validated form of Options
type resolved struct {
	Options
	metric     score.Metric
	policy     walkforward.Policy
	candidates []models.Name
}

func (o *Options) resolve() (*resolved, error) {
	if o == nil {
		o = NewDefaultOptions()
	}

	if o.TestSize < 1 {
		return nil, invalid(fmt.Errorf("test size %d, %w", o.TestSize, ErrInvalidTestSize))
	}
	if o.Folds < 1 {
		return nil, invalid(fmt.Errorf("%d folds, %w", o.Folds, crossval.ErrInvalidFolds))
	}

	metric := o.Metric
	if metric == "" {
		metric = DefaultMetric
	}
	metric, err := score.ParseMetric(string(metric))
	if err != nil {
		return nil, invalid(err)
	}

	candidates := models.Names
	if len(o.Candidates) > 0 {
		if candidates, err = models.ParseNames(o.Candidates); err != nil {
			return nil, invalid(err)
		}
	}

	policy := walkforward.Refit
	if o.Bagging {
		policy = walkforward.Reuse
	}
	if o.Policy != "" {
		if policy, err = walkforward.ParsePolicy(o.Policy); err != nil {
			return nil, invalid(err)
		}
	}

	if _, err := o.ModelConfig.Validate(); err != nil {
		return nil, invalid(err)
	}
	if o.Bagging {
		if _, err := o.BaggingOptions.Validate(); err != nil {
			return nil, invalid(err)
		}
	}

	return &resolved{
		Options:    *o,
		metric:     metric,
		policy:     policy,
		candidates: candidates,
	}, nil
}
