// Package timedataset holds the univariate time series type shared by every stage of model
// selection along with loaders and synthetic series generators.
package timedataset

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrSliceOutOfBounds   = errors.New("slice bounds out of range")
	ErrCannotInferFreq    = errors.New("cannot infer frequency from time slice")
)

// TimeDataset represents a time series storing a slice of time points and values.
// Both must be of the same length and time points must be strictly increasing.
type TimeDataset struct {
	T []time.Time
	Y []float64
}

// NewUnivariateDataset returns an instance of a TimeDataset given a time and value slice.
// The inputs are copied so later changes to the caller's slices do not leak in.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	var lastT time.Time
	for i := 0; i < len(t); i++ {
		currT := t[i]
		if i > 0 && (currT.Before(lastT) || currT.Equal(lastT)) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
		lastT = currT
	}

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(t))
	copy(tSeries, t)
	copy(ySeries, y)
	td := &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}

	return td, nil
}

// Len returns the number of observations
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.Y)
}

// Copy returns a deep copy of the dataset
func (td *TimeDataset) Copy() *TimeDataset {
	tSeries := make([]time.Time, len(td.T))
	ySeries := make([]float64, len(td.Y))
	copy(tSeries, td.T)
	copy(ySeries, td.Y)
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// Slice returns a copy of the observations in the half open index range [start, end).
func (td *TimeDataset) Slice(start, end int) (*TimeDataset, error) {
	if td == nil {
		return nil, ErrNoTrainingData
	}
	if start < 0 || end > len(td.Y) || start > end {
		return nil, fmt.Errorf("[%d:%d] with length %d, %w", start, end, len(td.Y), ErrSliceOutOfBounds)
	}
	sub := &TimeDataset{T: td.T[start:end], Y: td.Y[start:end]}
	return sub.Copy(), nil
}

// Values returns a copy of the observation values
func (td *TimeDataset) Values() []float64 {
	if td == nil {
		return nil
	}
	y := make([]float64, len(td.Y))
	copy(y, td.Y)
	return y
}
