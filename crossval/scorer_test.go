package crossval

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/aouyang1/go-ensemble/metrics"
	"github.com/aouyang1/go-ensemble/models"
	"github.com/aouyang1/go-ensemble/score"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBroken = errors.New("broken strategy")

type brokenModel struct {
	*models.NaiveModel
}

func (b brokenModel) Fit(y []float64) error {
	return errBroken
}

func noisySeries(n int) []float64 {
	rng := rand.New(rand.NewPCG(7, 7))
	y := make([]float64, n)
	y[0] = 20
	for i := 1; i < n; i++ {
		y[i] = 8 + 0.6*y[i-1] + rng.NormFloat64()
	}
	return y
}

func candidates(t *testing.T, names ...models.Name) []Candidate {
	var res []Candidate
	for _, name := range names {
		f, err := models.NewFactory(name, nil)
		require.Nil(t, err)
		res = append(res, Candidate{Name: name, Factory: f})
	}
	return res
}

func TestScore(t *testing.T) {
	y := noisySeries(300)
	s := &Scorer{Folds: 5, Metric: score.MAE, Parallelism: 2}

	summary, err := s.Score(context.Background(), y, candidates(t, models.Naive, models.AR))
	require.Nil(t, err)
	require.Len(t, summary.Strategies, 2)
	assert.Equal(t, score.MAE, summary.Metric)

	for i, name := range []models.Name{models.Naive, models.AR} {
		st := summary.Strategies[i]
		assert.Equal(t, name, st.Name)
		assert.True(t, st.Eligible())
		assert.Equal(t, 0, st.Excluded)
		require.Len(t, st.Folds, 5)

		var sum float64
		for _, v := range st.Folds {
			assert.Greater(t, v, 0.0)
			sum += v
		}
		assert.InDelta(t, sum/5, st.Mean, 1e-12)
	}

	// the autoregression captures the dependence the random walk forecast ignores
	naive, ok := summary.Get(models.Naive)
	require.True(t, ok)
	ar, ok := summary.Get(models.AR)
	require.True(t, ok)
	assert.Less(t, ar.Mean, naive.Mean)

	_, ok = summary.Get(models.ETS)
	assert.False(t, ok)
}

func TestScoreParallelMatchesSequential(t *testing.T) {
	y := noisySeries(240)
	cands := candidates(t, models.Names...)

	seq := &Scorer{Folds: 4, Metric: score.RMSE, Parallelism: 1}
	par := &Scorer{Folds: 4, Metric: score.RMSE, Parallelism: 8}

	a, err := seq.Score(context.Background(), y, cands)
	require.Nil(t, err)
	b, err := par.Score(context.Background(), y, cands)
	require.Nil(t, err)
	assert.Equal(t, a, b)
}

func TestScoreExcludesShortFolds(t *testing.T) {
	y := noisySeries(120)
	recorder := metrics.NewRecorder()
	s := &Scorer{Folds: 5, Metric: score.MAE, Metrics: recorder}

	// AR(30) needs 62 observations, the first three train prefixes hold 20, 40 and 60
	long := Candidate{Name: models.AR, Factory: func() models.Model { return models.NewAR(30) }}
	summary, err := s.Score(context.Background(), y, []Candidate{long})
	require.Nil(t, err)

	st := summary.Strategies[0]
	assert.Equal(t, 3, st.Excluded)
	assert.True(t, st.Eligible())
	assert.True(t, math.IsNaN(st.Folds[0]))
	assert.True(t, math.IsNaN(st.Folds[2]))
	assert.InDelta(t, (st.Folds[3]+st.Folds[4])/2, st.Mean, 1e-12)

	assert.Equal(t, 3.0, testutil.ToFloat64(recorder.Folds.WithLabelValues("ar", metrics.OutcomeExcluded)))
	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.Folds.WithLabelValues("ar", metrics.OutcomeScored)))
}

func TestScoreAllFoldsExcluded(t *testing.T) {
	y := noisySeries(60)
	s := &Scorer{Folds: 3, Metric: score.MAE}

	long := Candidate{Name: models.AR, Factory: func() models.Model { return models.NewAR(40) }}
	summary, err := s.Score(context.Background(), y, append(candidates(t, models.Naive), long))
	require.Nil(t, err)

	assert.True(t, summary.Strategies[0].Eligible())
	assert.False(t, summary.Strategies[1].Eligible())
	assert.True(t, math.IsNaN(summary.Strategies[1].Mean))
	assert.Equal(t, 3, summary.Strategies[1].Excluded)
}

func TestScoreErrors(t *testing.T) {
	y := noisySeries(100)
	broken := Candidate{
		Name:    models.Naive,
		Factory: func() models.Model { return brokenModel{models.NewNaive(0)} },
	}

	testData := map[string]struct {
		scorer     *Scorer
		candidates []Candidate
		err        error
	}{
		"no candidates":  {&Scorer{Folds: 2, Metric: score.MAE}, nil, ErrNoCandidates},
		"nil factory":    {&Scorer{Folds: 2, Metric: score.MAE}, []Candidate{{Name: models.AR}}, ErrNilFactory},
		"zero folds":     {&Scorer{Folds: 0, Metric: score.MAE}, candidates(t, models.AR), ErrInvalidFolds},
		"too many folds": {&Scorer{Folds: 101, Metric: score.MAE}, candidates(t, models.AR), ErrTooManyFolds},
		"unknown metric": {&Scorer{Folds: 2, Metric: "smape"}, candidates(t, models.AR), score.ErrUnknownMetric},
		"fit failure":    {&Scorer{Folds: 2, Metric: score.MAE}, []Candidate{broken}, errBroken},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := td.scorer.Score(context.Background(), y, td.candidates)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestScoreCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scorer{Folds: 3, Metric: score.MAE}
	_, err := s.Score(ctx, noisySeries(100), candidates(t, models.AR))
	assert.ErrorIs(t, err, context.Canceled)
}
