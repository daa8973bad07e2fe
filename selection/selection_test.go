package selection

import (
	"math"
	"testing"

	"github.com/aouyang1/go-ensemble/crossval"
	"github.com/aouyang1/go-ensemble/models"
	"github.com/aouyang1/go-ensemble/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryOf(means map[models.Name]float64, order ...models.Name) crossval.Summary {
	var s crossval.Summary
	for _, name := range order {
		s.Strategies = append(s.Strategies, crossval.StrategyScore{Name: name, Mean: means[name]})
	}
	return s
}

func TestSelect(t *testing.T) {
	nan := math.NaN()

	testData := map[string]struct {
		means    map[models.Name]float64
		order    []models.Name
		family   score.Family
		expected models.Name
		score    float64
		err      error
	}{
		"argmin": {
			means:    map[models.Name]float64{models.Naive: 3, models.AR: 1.5, models.ETS: 2},
			order:    []models.Name{models.Naive, models.AR, models.ETS},
			family:   score.Error,
			expected: models.AR,
			score:    1.5,
		},
		"argmax": {
			means:    map[models.Name]float64{models.Naive: 0.2, models.AR: 0.5, models.ETS: 0.9},
			order:    []models.Name{models.Naive, models.AR, models.ETS},
			family:   score.Score,
			expected: models.ETS,
			score:    0.9,
		},
		"error tie": {
			means:    map[models.Name]float64{models.ARMA: 1, models.ARIMA: 1, models.ETS: 1},
			order:    []models.Name{models.ARMA, models.ARIMA, models.ETS},
			family:   score.Error,
			expected: models.ARMA,
			score:    1,
		},
		"score tie": {
			means:    map[models.Name]float64{models.Naive: 0.7, models.ARIMA: 0.7},
			order:    []models.Name{models.Naive, models.ARIMA},
			family:   score.Score,
			expected: models.Naive,
			score:    0.7,
		},
		"tie in reversed summary": {
			means:    map[models.Name]float64{models.AR: 2, models.ETS: 2, models.Naive: 5},
			order:    []models.Name{models.ETS, models.Naive, models.AR},
			family:   score.Error,
			expected: models.AR,
			score:    2,
		},
		"skips ineligible": {
			means:    map[models.Name]float64{models.Naive: 4, models.AR: nan, models.ARMA: 3},
			order:    []models.Name{models.Naive, models.AR, models.ARMA},
			family:   score.Error,
			expected: models.ARMA,
			score:    3,
		},
		"negative scores": {
			means:    map[models.Name]float64{models.Naive: -4, models.AR: -0.5},
			order:    []models.Name{models.Naive, models.AR},
			family:   score.Score,
			expected: models.AR,
			score:    -0.5,
		},
		"none eligible": {
			means:  map[models.Name]float64{models.Naive: nan, models.AR: nan},
			order:  []models.Name{models.Naive, models.AR},
			family: score.Error,
			err:    ErrNoEligibleStrategy,
		},
		"empty": {
			family: score.Score,
			err:    ErrNoEligibleStrategy,
		},
		"unknown family": {
			means:  map[models.Name]float64{models.Naive: 1},
			order:  []models.Name{models.Naive},
			family: score.Family(7),
			err:    score.ErrUnknownFamily,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			sel, err := Select(summaryOf(td.means, td.order...), td.family)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, sel.Name())
			assert.Equal(t, td.score, sel.Score())
		})
	}
}

func TestSelectDeterministic(t *testing.T) {
	means := map[models.Name]float64{}
	for _, name := range models.Names {
		means[name] = 0.25
	}
	s := summaryOf(means, models.Names...)

	for i := 0; i < 20; i++ {
		sel, err := Select(s, score.Error)
		require.Nil(t, err)
		assert.Equal(t, models.Naive, sel.Name())
	}
}

func TestSelectionString(t *testing.T) {
	sel, err := Select(summaryOf(map[models.Name]float64{models.ETS: 1.5}, models.ETS), score.Error)
	require.Nil(t, err)
	assert.Equal(t, "ets (1.5)", sel.String())
}
