package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// constantVariance is the variance under which a history is treated as flat
const constantVariance = 1e-12

func checkFinite(y []float64) error {
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("index %d is %v, %w", i, v, ErrNonFiniteHistory)
		}
	}
	return nil
}

// isConstant returns the mean of y and whether y is flat
func isConstant(y []float64) (float64, bool) {
	switch len(y) {
	case 0:
		return 0, true
	case 1:
		return y[0], true
	}
	mean, variance := stat.MeanVariance(y, nil)
	return mean, variance < constantVariance
}

// difference applies the first difference d times returning the differenced series and the last
// value of every intermediate level, starting with the original series
func difference(y []float64, d int) ([]float64, []float64) {
	tails := make([]float64, d)
	cur := append([]float64(nil), y...)
	for k := 0; k < d; k++ {
		tails[k] = cur[len(cur)-1]
		next := make([]float64, len(cur)-1)
		for i := 1; i < len(cur); i++ {
			next[i-1] = cur[i] - cur[i-1]
		}
		cur = next
	}
	return cur, tails
}

// integrate undoes difference on a sequence of forecasts of the differenced series
func integrate(forecasts, tails []float64) []float64 {
	res := append([]float64(nil), forecasts...)
	for k := len(tails) - 1; k >= 0; k-- {
		last := tails[k]
		for i := range res {
			res[i] += last
			last = res[i]
		}
	}
	return res
}
