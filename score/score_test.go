package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	predicted := []float64{1, 2, 3, 6}
	actual := []float64{1, 4, 3, 2}

	testData := map[string]struct {
		metric   Metric
		expected float64
	}{
		"mae":  {MAE, 1.5},
		"mse":  {MSE, 5.0},
		"rmse": {RMSE, math.Sqrt(5.0)},
		"mape": {MAPE, (0 + 0.5 + 0 + 2.0) / 4},
		// mean 2.5, ss_tot = 2.25+2.25+0.25+0.25 = 5, ss_res = 20
		"r2": {R2, 1 - 20.0/5.0},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := td.metric.Compute(predicted, actual)
			require.Nil(t, err)
			assert.InDelta(t, td.expected, res, 1e-9)
		})
	}
}

func TestComputeErrors(t *testing.T) {
	testData := map[string]struct {
		metric    Metric
		predicted []float64
		actual    []float64
		err       error
	}{
		"length mismatch": {MAE, []float64{1}, []float64{1, 2}, ErrResLenMismatch},
		"empty":           {RMSE, nil, nil, ErrNoObservations},
		"unknown":         {Metric("smape"), []float64{1}, []float64{1}, ErrUnknownMetric},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := td.metric.Compute(td.predicted, td.actual)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestMAPEAllZero(t *testing.T) {
	res, err := MAPE.Compute([]float64{1, 2}, []float64{0, 0})
	require.Nil(t, err)
	assert.True(t, math.IsNaN(res))
}

func TestParseMetric(t *testing.T) {
	testData := map[string]struct {
		input    string
		expected Metric
		family   Family
		err      error
	}{
		"mae":        {"mae", MAE, Error, nil},
		"upper case": {" RMSE ", RMSE, Error, nil},
		"r2":         {"r2", R2, Score, nil},
		"unknown":    {"accuracy", "", Error, ErrUnknownMetric},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := ParseMetric(td.input)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, m)
			assert.Equal(t, td.family, m.Family())
		})
	}
}

func TestParseFamily(t *testing.T) {
	f, err := ParseFamily("Score")
	require.Nil(t, err)
	assert.Equal(t, Score, f)
	assert.Equal(t, "score", f.String())

	_, err = ParseFamily("likelihood")
	assert.ErrorIs(t, err, ErrUnknownFamily)
}
