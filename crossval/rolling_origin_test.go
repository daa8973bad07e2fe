package crossval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRollingOrigin(t *testing.T) {
	testData := map[string]struct {
		n    int
		k    int
		size int
		err  error
	}{
		"even":           {12, 3, 3, nil},
		"remainder":      {10, 3, 2, nil},
		"one fold":       {10, 1, 5, nil},
		"folds equals n": {5, 5, 1, nil},
		"zero folds":     {10, 0, 0, ErrInvalidFolds},
		"negative folds": {10, -1, 0, ErrInvalidFolds},
		"too many folds": {3, 4, 0, ErrTooManyFolds},
		"empty":          {0, 1, 0, ErrNoObservation},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			r, err := NewRollingOrigin(td.n, td.k)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.k, r.Folds())
			assert.Equal(t, td.size, r.ValidationSize())
		})
	}
}

func TestSplits(t *testing.T) {
	r, err := NewRollingOrigin(10, 3)
	require.Nil(t, err)

	expected := []Split{
		{Fold: 0, Train: Range{0, 4}, Validation: Range{4, 6}},
		{Fold: 1, Train: Range{0, 6}, Validation: Range{6, 8}},
		{Fold: 2, Train: Range{0, 8}, Validation: Range{8, 10}},
	}
	assert.Equal(t, expected, r.All())

	// restartable
	assert.Equal(t, r.All(), r.All())

	var folds []int
	for i, s := range r.Splits() {
		folds = append(folds, i)
		if s.Fold == 1 {
			break
		}
	}
	assert.Equal(t, []int{0, 1}, folds)
}

func TestSplitProperties(t *testing.T) {
	for n := 1; n <= 40; n++ {
		for k := 1; k <= n; k++ {
			r, err := NewRollingOrigin(n, k)
			require.Nil(t, err)

			splits := r.All()
			require.Len(t, splits, k)

			covered := 0
			for i, s := range splits {
				assert.Equal(t, i, s.Fold)
				assert.Equal(t, 0, s.Train.Start)
				assert.Equal(t, s.Train.End, s.Validation.Start, "contiguous n=%d k=%d", n, k)
				assert.Greater(t, s.Validation.Len(), 0)
				if i > 0 {
					prev := splits[i-1]
					assert.Less(t, prev.Train.End, s.Train.End, "expanding n=%d k=%d", n, k)
					assert.Equal(t, prev.Validation.End, s.Validation.Start, "no overlap n=%d k=%d", n, k)
				}
				covered += s.Validation.Len()
			}

			// validation blocks tile a suffix of at least k observations
			assert.Equal(t, n, splits[k-1].Validation.End)
			assert.GreaterOrEqual(t, covered, k)
			assert.Equal(t, n-covered, splits[0].Validation.Start)
		}
	}
}
