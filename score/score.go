// Package score computes accuracy metrics between predictions and observations and records
// whether a metric is minimized or maximized during model selection.
package score

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrNoObservations = errors.New("no observations to score")
	ErrUnknownMetric  = errors.New("unknown metric")
	ErrUnknownFamily  = errors.New("unknown metric family")
)

// Family tells model selection which direction is better
type Family int

const (
	// Error metrics are minimized
	Error Family = iota
	// Score metrics are maximized
	Score
)

func (f Family) String() string {
	switch f {
	case Error:
		return "error"
	case Score:
		return "score"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// ParseFamily maps "error" or "score" to a Family
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return Error, nil
	case "score":
		return Score, nil
	}
	return 0, fmt.Errorf("%q, %w", s, ErrUnknownFamily)
}

// Metric names a supported accuracy metric
type Metric string

const (
	MAE  Metric = "mae"  // mean absolute error
	MSE  Metric = "mse"  // mean squared error
	RMSE Metric = "rmse" // root mean squared error
	MAPE Metric = "mape" // mean absolute percent error
	R2   Metric = "r2"   // coefficient of determination
)

// Metrics lists every supported metric
var Metrics = []Metric{MAE, MSE, RMSE, MAPE, R2}

// ParseMetric resolves a metric name case insensitively
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Metrics {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%q, %w", s, ErrUnknownMetric)
}

// Family returns the selection direction of the metric
func (m Metric) Family() Family {
	if m == R2 {
		return Score
	}
	return Error
}

func (m Metric) String() string {
	return string(m)
}

// Compute evaluates the metric over aligned predicted and actual values
func (m Metric) Compute(predicted, actual []float64) (float64, error) {
	switch m {
	case MAE:
		return MeanAbsoluteError(predicted, actual)
	case MSE:
		return MeanSquaredError(predicted, actual)
	case RMSE:
		mse, err := MeanSquaredError(predicted, actual)
		if err != nil {
			return 0, err
		}
		return math.Sqrt(mse), nil
	case MAPE:
		return MeanAbsolutePercentError(predicted, actual)
	case R2:
		return RSquared(predicted, actual)
	}
	return 0, fmt.Errorf("%q, %w", string(m), ErrUnknownMetric)
}

func validate(predicted, actual []float64) error {
	if len(predicted) != len(actual) {
		return fmt.Errorf("%d predictions and %d observations, %w", len(predicted), len(actual), ErrResLenMismatch)
	}
	if len(actual) == 0 {
		return ErrNoObservations
	}
	return nil
}

func MeanAbsoluteError(predicted, actual []float64) (float64, error) {
	if err := validate(predicted, actual); err != nil {
		return 0, err
	}
	return floats.Distance(predicted, actual, 1) / float64(len(actual)), nil
}

func MeanSquaredError(predicted, actual []float64) (float64, error) {
	if err := validate(predicted, actual); err != nil {
		return 0, err
	}
	d := floats.Distance(predicted, actual, 2)
	return d * d / float64(len(actual)), nil
}

// MeanAbsolutePercentError skips zero observations, the percent error is undefined there. Returns
// NaN when every observation is zero.
func MeanAbsolutePercentError(predicted, actual []float64) (float64, error) {
	if err := validate(predicted, actual); err != nil {
		return 0, err
	}

	var sum float64
	var cnt int
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		cnt++
	}
	if cnt == 0 {
		return math.NaN(), nil
	}
	return sum / float64(cnt), nil
}

func RSquared(predicted, actual []float64) (float64, error) {
	if err := validate(predicted, actual); err != nil {
		return 0, err
	}
	return stat.RSquaredFrom(predicted, actual, nil), nil
}
