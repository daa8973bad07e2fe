// Package walkforward forecasts a test window one step at a time with the selected strategy
package walkforward

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/aouyang1/go-ensemble/metrics"
	"github.com/aouyang1/go-ensemble/models"
	"github.com/aouyang1/go-ensemble/score"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrWalkForward    = errors.New("walk forward failed")
	ErrNoFactory      = errors.New("no model factory")
	ErrEmptyTest      = errors.New("empty test window")
	ErrUnknownPolicy  = errors.New("unknown refit policy")
	ErrNoObservations = errors.New("no eval observations")
)

// Policy decides whether every step refits the strategy
type Policy int

const (
	// Refit fits a fresh model on all observations before each step. Steps are independent.
	Refit Policy = iota
	// Reuse fits once on the eval series and appends every test observation to the same model
	Reuse
)

func (p Policy) String() string {
	switch p {
	case Refit:
		return "refit"
	case Reuse:
		return "reuse"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy maps "refit" or "reuse" to a Policy
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "refit":
		return Refit, nil
	case "reuse":
		return Reuse, nil
	}
	return 0, fmt.Errorf("%q, %w", s, ErrUnknownPolicy)
}

// Result aligns every one step prediction with the observation it forecast
type Result struct {
	Predictions  []float64    `json:"predictions"`
	Observations []float64    `json:"observations"`
	Score        float64      `json:"score"`
	Metric       score.Metric `json:"metric"`
}

// Runner walks a strategy forward over a test window
type Runner struct {
	Policy Policy
	Metric score.Metric

	// Parallelism bounds concurrent refit steps. Values below 1 use GOMAXPROCS, 1 is sequential.
	// The reuse policy is always sequential.
	Parallelism int

	Logger  zerolog.Logger
	Metrics *metrics.Recorder
}

// Run forecasts test[i] from eval followed by test[:i] for every i and scores the predictions. Any
// failure, insufficient history included, is fatal and wraps ErrWalkForward.
func (r *Runner) Run(ctx context.Context, factory models.Factory, eval, test []float64) (*Result, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w, %w", ErrWalkForward, ErrNoFactory)
	}
	if len(test) == 0 {
		return nil, fmt.Errorf("%w, %w", ErrWalkForward, ErrEmptyTest)
	}
	if len(eval) == 0 {
		return nil, fmt.Errorf("%w, %w", ErrWalkForward, ErrNoObservations)
	}
	if _, err := score.ParseMetric(string(r.Metric)); err != nil {
		return nil, fmt.Errorf("%w, %w", ErrWalkForward, err)
	}

	name := factory().Name()
	start := time.Now()

	var predictions []float64
	var err error
	switch r.Policy {
	case Refit:
		predictions, err = r.refit(ctx, factory, name, eval, test)
	case Reuse:
		predictions, err = r.reuse(ctx, factory, name, eval, test)
	default:
		err = fmt.Errorf("%s, %w", r.Policy, ErrUnknownPolicy)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s, %w, %w", name, r.Policy, ErrWalkForward, err)
	}

	observations := append([]float64(nil), test...)
	res, err := r.Metric.Compute(predictions, observations)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrWalkForward, err)
	}

	r.Logger.Info().
		Str("strategy", name.String()).
		Str("policy", r.Policy.String()).
		Int("steps", len(test)).
		Str("metric", r.Metric.String()).
		Float64("score", res).
		Dur("elapsed", time.Since(start)).
		Msg("walked forward")

	return &Result{
		Predictions:  predictions,
		Observations: observations,
		Score:        res,
		Metric:       r.Metric,
	}, nil
}

func (r *Runner) refit(ctx context.Context, factory models.Factory, name models.Name, eval, test []float64) ([]float64, error) {
	predictions := make([]float64, len(test))

	parallelism := r.Parallelism
	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range test {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()

			// every step owns its history
			history := make([]float64, 0, len(eval)+i)
			history = append(history, eval...)
			history = append(history, test[:i]...)

			m := factory()
			if err := m.Fit(history); err != nil {
				return fmt.Errorf("step %d, %w", i, err)
			}
			pred, err := m.Predict(1)
			if err != nil {
				return fmt.Errorf("step %d, %w", i, err)
			}
			predictions[i] = pred[0]
			r.Metrics.ObserveStep(name.String(), Refit.String(), time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return predictions, nil
}

func (r *Runner) reuse(ctx context.Context, factory models.Factory, name models.Name, eval, test []float64) ([]float64, error) {
	m := factory()
	if err := m.Fit(append([]float64(nil), eval...)); err != nil {
		return nil, err
	}
	if ex, ok := m.(models.Excluder); ok && ex.Excluded() > 0 {
		r.Metrics.AddMembersFailed(name.String(), ex.Excluded())
		r.Logger.Warn().
			Str("strategy", name.String()).
			Int("members", ex.Excluded()).
			Msg("ensemble members failed to fit")
	}

	predictions := make([]float64, len(test))
	for i, obs := range test {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		pred, err := m.Predict(1)
		if err != nil {
			return nil, fmt.Errorf("step %d, %w", i, err)
		}
		predictions[i] = pred[0]
		if err := m.Append(obs); err != nil {
			return nil, fmt.Errorf("step %d, %w", i, err)
		}
		r.Metrics.ObserveStep(name.String(), Reuse.String(), time.Since(start))
	}
	return predictions, nil
}
