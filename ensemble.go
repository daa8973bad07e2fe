// Package ensemble selects the most accurate forecast strategy for a univariate series with expanding
// window cross validation and walks the winner forward over a held out test window.
package ensemble

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-ensemble/bagging"
	"github.com/aouyang1/go-ensemble/crossval"
	"github.com/aouyang1/go-ensemble/models"
	"github.com/aouyang1/go-ensemble/score"
	"github.com/aouyang1/go-ensemble/selection"
	"github.com/aouyang1/go-ensemble/timedataset"
	"github.com/aouyang1/go-ensemble/walkforward"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyTimeDataset  = errors.New("no timedataset or uninitialized")
	ErrTestTooLarge      = errors.New("test size leaves no observations to evaluate on")
	ErrStrategyNotScored = errors.New("selected strategy is not a candidate")
)

// Ensemble runs model selection and the walk forward test for a fixed set of candidates
type Ensemble struct {
	opt        *resolved
	candidates []crossval.Candidate
	logger     zerolog.Logger
}

// New validates the options and builds the candidate factories before any fitting. If no options
// are provided a default is used.
func New(opt *Options) (*Ensemble, error) {
	res, err := opt.resolve()
	if err != nil {
		return nil, err
	}

	e := &Ensemble{
		opt:    res,
		logger: res.Logger,
	}
	for _, name := range res.candidates {
		f, err := models.NewFactory(name, res.ModelConfig)
		if err != nil {
			return nil, invalid(err)
		}
		if res.Bagging {
			if f, err = bagging.Factory(f, res.BaggingOptions); err != nil {
				return nil, invalid(err)
			}
		}
		e.candidates = append(e.candidates, crossval.Candidate{Name: name, Factory: f})
	}
	return e, nil
}

// Candidates returns the competing strategies in tie break order
func (e *Ensemble) Candidates() []models.Name {
	names := make([]models.Name, len(e.candidates))
	for i, c := range e.candidates {
		names[i] = c.Name
	}
	return names
}

// Split holds out the last TestSize observations as the test window
func (e *Ensemble) Split(td *timedataset.TimeDataset) (*timedataset.TimeDataset, *timedataset.TimeDataset, error) {
	if td == nil || td.Len() == 0 {
		return nil, nil, ErrEmptyTimeDataset
	}
	n := td.Len()
	if e.opt.TestSize >= n {
		return nil, nil, fmt.Errorf("test size %d with %d observations, %w", e.opt.TestSize, n, ErrTestTooLarge)
	}

	eval, err := td.Slice(0, n-e.opt.TestSize)
	if err != nil {
		return nil, nil, err
	}
	test, err := td.Slice(n-e.opt.TestSize, n)
	if err != nil {
		return nil, nil, err
	}
	return eval, test, nil
}

// Select cross validates every candidate on eval and picks the best mean score
func (e *Ensemble) Select(ctx context.Context, eval *timedataset.TimeDataset) (selection.Selection, crossval.Summary, error) {
	if eval == nil || eval.Len() == 0 {
		return selection.Selection{}, crossval.Summary{}, ErrEmptyTimeDataset
	}

	scorer := &crossval.Scorer{
		Folds:       e.opt.Folds,
		Metric:      e.opt.metric,
		Parallelism: e.opt.Parallelism,
		Logger:      e.logger,
		Metrics:     e.opt.Metrics,
	}
	summary, err := scorer.Score(ctx, eval.Values(), e.candidates)
	if err != nil {
		return selection.Selection{}, summary, fmt.Errorf("unable to cross validate candidates, %w", err)
	}

	sel, err := selection.Select(summary, e.opt.metric.Family())
	if err != nil {
		return selection.Selection{}, summary, err
	}
	e.opt.Metrics.ObserveSelection(sel.Name().String())
	e.logger.Info().
		Str("strategy", sel.Name().String()).
		Str("metric", e.opt.metric.String()).
		Float64("mean", sel.Score()).
		Msg("selected strategy")
	return sel, summary, nil
}

func (e *Ensemble) factory(name models.Name) (models.Factory, error) {
	for _, c := range e.candidates {
		if c.Name == name {
			return c.Factory, nil
		}
	}
	return nil, fmt.Errorf("%s, %w", name, ErrStrategyNotScored)
}

// RunTest walks the selected strategy forward over the test window
func (e *Ensemble) RunTest(ctx context.Context, sel selection.Selection, eval, test *timedataset.TimeDataset) (*walkforward.Result, error) {
	if eval == nil || test == nil {
		return nil, ErrEmptyTimeDataset
	}
	f, err := e.factory(sel.Name())
	if err != nil {
		return nil, err
	}

	runner := &walkforward.Runner{
		Policy:      e.opt.policy,
		Metric:      e.opt.metric,
		Parallelism: e.opt.Parallelism,
		Logger:      e.logger,
		Metrics:     e.opt.Metrics,
	}
	return runner.Run(ctx, f, eval.Values(), test.Values())
}

// Run splits td, selects a strategy, walks it forward and runs the optional reservoir comparison
func (e *Ensemble) Run(ctx context.Context, td *timedataset.TimeDataset) (*Result, error) {
	start := time.Now()
	id := uuid.New()
	logger := e.logger.With().Str("run_id", id.String()).Logger()

	eval, test, err := e.Split(td)
	if err != nil {
		return nil, err
	}
	reg, err := timedataset.TimeSlice(td.T).Regularity()
	if err != nil {
		return nil, err
	}
	if reg.Irregular > 0 {
		logger.Warn().
			Dur("freq", reg.Freq).
			Int("irregular_steps", reg.Irregular).
			Int("missing", reg.Missing).
			Msg("series is not evenly sampled, forecasting by position")
	}
	logger.Info().
		Int("eval", eval.Len()).
		Int("test", test.Len()).
		Dur("freq", reg.Freq).
		Bool("bagging", e.opt.Bagging).
		Msg("deciding best strategy")

	sel, summary, err := e.Select(ctx, eval)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("strategy", sel.Name().String()).
		Str("policy", e.opt.policy.String()).
		Msg("running selected strategy on test data")
	forecast, err := e.RunTest(ctx, sel, eval, test)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:            id,
		Selected:      sel.Name(),
		SelectedScore: sel.Score(),
		Metric:        e.opt.metric,
		Family:        e.opt.metric.Family(),
		Bagging:       e.opt.Bagging,
		Policy:        e.opt.policy,
		Summary:       summary,
		Frequency:     reg.Freq,
		T:             test.T,
		Forecast:      forecast,
	}

	if e.opt.Reservoir != nil {
		res.Reservoir = e.runReservoir(ctx, logger, eval, test)
	}

	res.Elapsed = time.Since(start)
	logger.Info().
		Str("strategy", res.Selected.String()).
		Float64("score", forecast.Score).
		Dur("elapsed", res.Elapsed).
		Msg("run complete")
	return res, nil
}

// runReservoir never fails the run, errors are logged and reported in the result
func (e *Ensemble) runReservoir(ctx context.Context, logger zerolog.Logger, eval, test *timedataset.TimeDataset) *ReservoirResult {
	preds, res, err := e.opt.Reservoir.Run(ctx, eval.Copy(), test.Copy(), e.opt.ReservoirConfig)
	if err == nil && len(preds) != test.Len() {
		err = fmt.Errorf("%d predictions for %d test observations, %w", len(preds), test.Len(), score.ErrResLenMismatch)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("reservoir comparison failed")
		return &ReservoirResult{Score: math.NaN(), Err: err.Error()}
	}

	logger.Info().
		Str("metric", e.opt.metric.String()).
		Float64("score", res).
		Msg("reservoir comparison complete")
	return &ReservoirResult{Predictions: preds, Score: res}
}
