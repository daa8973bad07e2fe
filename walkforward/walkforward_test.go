package walkforward

import (
	"context"
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

func seasonal(n int) []float64 {
	rng := rand.New(rand.NewPCG(3, 5))
	y := make([]float64, n)
	for i := range y {
		y[i] = 10 + math.Sin(2*math.Pi*float64(i)/24) + 0.1*rng.NormFloat64()
	}
	return y
}

func factory(t *testing.T, name models.Name) models.Factory {
	f, err := models.NewFactory(name, nil)
	require.Nil(t, err)
	return f
}

func TestParsePolicy(t *testing.T) {
	testData := map[string]struct {
		in       string
		expected Policy
		err      error
	}{
		"refit":   {"refit", Refit, nil},
		"reuse":   {" Reuse ", Reuse, nil},
		"unknown": {"sometimes", 0, ErrUnknownPolicy},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			p, err := ParsePolicy(td.in)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, p)
			assert.Equal(t, td.expected.String(), p.String())
		})
	}
}

func TestRunAlignment(t *testing.T) {
	y := seasonal(260)
	eval, test := y[:200], y[200:]

	for _, policy := range []Policy{Refit, Reuse} {
		t.Run(policy.String(), func(t *testing.T) {
			r := &Runner{Policy: policy, Metric: score.MAE}
			res, err := r.Run(context.Background(), factory(t, models.Naive), eval, test)
			require.Nil(t, err)

			require.Len(t, res.Predictions, len(test))
			assert.Equal(t, test, res.Observations)
			assert.Equal(t, score.MAE, res.Metric)

			// the naive forecast of step i is the observation just before it
			assert.Equal(t, eval[len(eval)-1], res.Predictions[0])
			for i := 1; i < len(test); i++ {
				assert.Equal(t, test[i-1], res.Predictions[i])
			}
		})
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	y := seasonal(240)
	eval, test := y[:210], y[210:]

	for _, name := range []models.Name{models.AR, models.ARIMA, models.ETS} {
		t.Run(name.String(), func(t *testing.T) {
			seq := &Runner{Policy: Refit, Metric: score.RMSE, Parallelism: 1}
			par := &Runner{Policy: Refit, Metric: score.RMSE, Parallelism: 6}

			a, err := seq.Run(context.Background(), factory(t, name), eval, test)
			require.Nil(t, err)
			b, err := par.Run(context.Background(), factory(t, name), eval, test)
			require.Nil(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestRunScoreRoundTrip(t *testing.T) {
	y := seasonal(250)
	eval, test := y[:200], y[200:]

	for _, metric := range score.Metrics {
		for _, policy := range []Policy{Refit, Reuse} {
			t.Run(metric.String()+"_"+policy.String(), func(t *testing.T) {
				r := &Runner{Policy: policy, Metric: metric}
				res, err := r.Run(context.Background(), factory(t, models.ARMA), eval, test)
				require.Nil(t, err)

				again, err := metric.Compute(res.Predictions, res.Observations)
				require.Nil(t, err)
				assert.Equal(t, res.Score, again)
			})
		}
	}
}

func TestRunReuseTracksSeason(t *testing.T) {
	y := seasonal(300)
	eval, test := y[:240], y[240:]

	naive, err := (&Runner{Policy: Reuse, Metric: score.MAE}).Run(context.Background(), factory(t, models.Naive), eval, test)
	require.Nil(t, err)
	ets, err := (&Runner{Policy: Reuse, Metric: score.MAE}).Run(context.Background(), factory(t, models.ETS), eval, test)
	require.Nil(t, err)
	assert.Less(t, ets.Score, naive.Score)
}

func TestRunRecordsSteps(t *testing.T) {
	y := seasonal(120)
	recorder := metrics.NewRecorder()

	r := &Runner{Policy: Refit, Metric: score.MAE, Metrics: recorder}
	_, err := r.Run(context.Background(), factory(t, models.AR), y[:100], y[100:])
	require.Nil(t, err)
	assert.Equal(t, 20.0, testutil.ToFloat64(recorder.Steps.WithLabelValues("ar", "refit")))
}

func TestRunErrors(t *testing.T) {
	y := seasonal(50)

	testData := map[string]struct {
		runner  *Runner
		factory models.Factory
		eval    []float64
		test    []float64
		err     error
	}{
		"nil factory":          {&Runner{Metric: score.MAE}, nil, y[:40], y[40:], ErrNoFactory},
		"empty test":           {&Runner{Metric: score.MAE}, factory(t, models.AR), y, nil, ErrEmptyTest},
		"empty eval":           {&Runner{Metric: score.MAE}, factory(t, models.AR), nil, y, ErrNoObservations},
		"unknown metric":       {&Runner{Metric: "wape"}, factory(t, models.AR), y[:40], y[40:], score.ErrUnknownMetric},
		"unknown policy":       {&Runner{Policy: Policy(4), Metric: score.MAE}, factory(t, models.AR), y[:40], y[40:], ErrUnknownPolicy},
		"short refit history":  {&Runner{Metric: score.MAE}, factory(t, models.AR), y[:3], y[3:10], models.ErrInsufficientHistory},
		"short reuse history":  {&Runner{Policy: Reuse, Metric: score.MAE}, factory(t, models.ETS), y[:20], y[20:], models.ErrInsufficientHistory},
		"non finite histories": {&Runner{Metric: score.MAE}, factory(t, models.AR), []float64{1, 2, math.NaN(), 4, 5, 6, 7}, y[:2], models.ErrNonFiniteHistory},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := td.runner.Run(context.Background(), td.factory, td.eval, td.test)
			assert.ErrorIs(t, err, ErrWalkForward)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	y := seasonal(100)
	for _, policy := range []Policy{Refit, Reuse} {
		t.Run(policy.String(), func(t *testing.T) {
			r := &Runner{Policy: policy, Metric: score.MAE}
			_, err := r.Run(ctx, factory(t, models.AR), y[:80], y[80:])
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}
