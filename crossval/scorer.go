package crossval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/aouyang1/go-ensemble/metrics"
	"github.com/aouyang1/go-ensemble/models"
	"github.com/aouyang1/go-ensemble/score"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Candidate is a strategy competing during selection
type Candidate struct {
	Name    models.Name
	Factory models.Factory
}

// StrategyScore is the cross validation outcome of one candidate. Folds holds the score of every
// fold in time order with NaN for excluded folds.
type StrategyScore struct {
	Name     models.Name `json:"name"`
	Mean     float64     `json:"mean"`
	Folds    []float64   `json:"folds"`
	Excluded int         `json:"excluded"`
}

// Eligible reports whether at least one fold was scored
func (s StrategyScore) Eligible() bool {
	return !math.IsNaN(s.Mean)
}

// Summary holds the scores of every candidate in the order they were given
type Summary struct {
	Metric     score.Metric    `json:"metric"`
	Strategies []StrategyScore `json:"strategies"`
}

// Get returns the score of the named strategy
func (s Summary) Get(name models.Name) (StrategyScore, bool) {
	for _, st := range s.Strategies {
		if st.Name == name {
			return st, true
		}
	}
	return StrategyScore{}, false
}

// Scorer runs every candidate against every fold of an expanding window split
type Scorer struct {
	Folds  int
	Metric score.Metric

	// Parallelism bounds the number of folds evaluated at once. Values below 1 use GOMAXPROCS, 1 is
	// sequential.
	Parallelism int

	Logger  zerolog.Logger
	Metrics *metrics.Recorder
}

// Score fits each candidate on every train prefix and scores it one step at a time over the
// validation block. Folds failing with models.ErrInsufficientHistory or producing a non finite score
// are excluded from the mean and counted, any other failure aborts the evaluation.
func (s *Scorer) Score(ctx context.Context, y []float64, candidates []Candidate) (Summary, error) {
	if len(candidates) == 0 {
		return Summary{}, ErrNoCandidates
	}
	for _, c := range candidates {
		if c.Factory == nil {
			return Summary{}, fmt.Errorf("%s, %w", c.Name, ErrNilFactory)
		}
	}
	if _, err := score.ParseMetric(string(s.Metric)); err != nil {
		return Summary{}, err
	}

	splitter, err := NewRollingOrigin(len(y), s.Folds)
	if err != nil {
		return Summary{}, err
	}
	splits := splitter.All()

	// every candidate and fold writes to its own cell
	results := make([][]float64, len(candidates))
	for i := range results {
		results[i] = make([]float64, len(splits))
	}

	parallelism := s.Parallelism
	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for ci, c := range candidates {
		for _, sp := range splits {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := s.scoreFold(c, y, sp)
				if err != nil {
					return fmt.Errorf("%s fold %d, %w", c.Name, sp.Fold, err)
				}
				results[ci][sp.Fold] = res
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Metric:     s.Metric,
		Strategies: make([]StrategyScore, len(candidates)),
	}
	for ci, c := range candidates {
		st := reduce(c.Name, results[ci])
		summary.Strategies[ci] = st
		s.Metrics.SetMeanScore(c.Name.String(), s.Metric.String(), st.Mean)
		s.Logger.Debug().
			Str("strategy", c.Name.String()).
			Str("metric", s.Metric.String()).
			Float64("mean", st.Mean).
			Int("excluded", st.Excluded).
			Msg("cross validated strategy")
	}
	return summary, nil
}

// scoreFold returns NaN for an excluded fold
func (s *Scorer) scoreFold(c Candidate, y []float64, sp Split) (float64, error) {
	start := time.Now()
	train := y[sp.Train.Start:sp.Train.End]
	validation := y[sp.Validation.Start:sp.Validation.End]

	m := c.Factory()
	if err := m.Fit(train); err != nil {
		if errors.Is(err, models.ErrInsufficientHistory) {
			s.Metrics.ObserveFold(c.Name.String(), metrics.OutcomeExcluded, time.Since(start))
			s.Logger.Warn().Err(err).
				Str("strategy", c.Name.String()).
				Int("fold", sp.Fold).
				Msg("excluding fold")
			return math.NaN(), nil
		}
		s.Metrics.ObserveFold(c.Name.String(), metrics.OutcomeFailed, time.Since(start))
		return 0, err
	}

	if ex, ok := m.(models.Excluder); ok && ex.Excluded() > 0 {
		s.Metrics.AddMembersFailed(c.Name.String(), ex.Excluded())
		s.Logger.Debug().
			Str("strategy", c.Name.String()).
			Int("fold", sp.Fold).
			Int("members", ex.Excluded()).
			Msg("ensemble members failed to fit")
	}

	res, err := m.Score(validation, s.Metric)
	if err != nil {
		s.Metrics.ObserveFold(c.Name.String(), metrics.OutcomeFailed, time.Since(start))
		return 0, err
	}
	if math.IsNaN(res) || math.IsInf(res, 0) {
		s.Metrics.ObserveFold(c.Name.String(), metrics.OutcomeExcluded, time.Since(start))
		s.Logger.Warn().
			Str("strategy", c.Name.String()).
			Int("fold", sp.Fold).
			Float64("score", res).
			Msg("excluding fold with non finite score")
		return math.NaN(), nil
	}

	s.Metrics.ObserveFold(c.Name.String(), metrics.OutcomeScored, time.Since(start))
	return res, nil
}

func reduce(name models.Name, folds []float64) StrategyScore {
	st := StrategyScore{Name: name, Folds: folds}
	var sum float64
	var cnt int
	for _, v := range folds {
		if math.IsNaN(v) {
			st.Excluded++
			continue
		}
		sum += v
		cnt++
	}
	if cnt == 0 {
		st.Mean = math.NaN()
		return st
	}
	st.Mean = sum / float64(cnt)
	return st
}
