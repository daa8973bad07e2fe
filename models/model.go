// Package models is the closed set of forecast strategies competing during model selection. Every
// strategy fits a univariate history, forecasts ahead and can be advanced with new observations
// without refitting its parameters.
package models

import (
	"fmt"
	"strings"

	"github.com/aouyang1/go-ensemble/score"
)

// Model is a forecast strategy. An instance holds the state of a single fit and is never shared
// between folds, steps or ensemble members.
type Model interface {
	Name() Name

	// MinHistory is the shortest history Fit accepts
	MinHistory() int

	Fit(y []float64) error
	Predict(horizon int) ([]float64, error)

	// Append extends the state with observations keeping the fitted parameters
	Append(obs ...float64) error

	// Fitted returns the in-sample one step ahead predictions aligned with the history
	Fitted() []float64

	// Score rolls one step ahead through holdout, appending each actual after predicting it, and
	// returns the metric over the whole holdout.
	Score(holdout []float64, metric score.Metric) (float64, error)
}

// Excluder is implemented by models that drop members failing to fit instead of failing the whole
// fit
type Excluder interface {
	Excluded() int
}

// Factory builds a fresh unfitted model
type Factory func() Model

// Name identifies a strategy. The ordinal order is the tie break order during selection.
type Name int

const (
	Naive Name = iota
	AR
	ARMA
	ARIMA
	ETS
)

// Names lists every strategy in enumeration order
var Names = []Name{Naive, AR, ARMA, ARIMA, ETS}

var nameStrings = [...]string{"naive", "ar", "arma", "arima", "ets"}

func (n Name) String() string {
	if n < 0 || int(n) >= len(nameStrings) {
		return fmt.Sprintf("strategy(%d)", int(n))
	}
	return nameStrings[n]
}

// ParseName resolves a strategy identifier case insensitively
func ParseName(s string) (Name, error) {
	id := strings.ToLower(strings.TrimSpace(s))
	for i, known := range nameStrings {
		if id == known {
			return Name(i), nil
		}
	}
	return 0, fmt.Errorf("%q, %w", s, ErrUnknownStrategy)
}

func (n Name) MarshalText() ([]byte, error) {
	if n < 0 || int(n) >= len(nameStrings) {
		return nil, fmt.Errorf("%d, %w", int(n), ErrUnknownStrategy)
	}
	return []byte(n.String()), nil
}

func (n *Name) UnmarshalText(text []byte) error {
	parsed, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// ParseNames resolves a list of identifiers keeping enumeration order and dropping duplicates
func ParseNames(ids []string) ([]Name, error) {
	seen := make(map[Name]bool, len(ids))
	for _, id := range ids {
		n, err := ParseName(id)
		if err != nil {
			return nil, err
		}
		seen[n] = true
	}

	names := make([]Name, 0, len(seen))
	for _, n := range Names {
		if seen[n] {
			names = append(names, n)
		}
	}
	return names, nil
}

// NewFactory returns the constructor of the named strategy configured by cfg. A nil cfg uses the
// default orders.
func NewFactory(name Name, cfg *Config) (Factory, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	switch name {
	case Naive:
		return func() Model { return NewNaive(cfg.SeasonalPeriod) }, nil
	case AR:
		return func() Model { return NewAR(cfg.AR.P) }, nil
	case ARMA:
		return func() Model { return NewARMA(cfg.ARMA.P, cfg.ARMA.Q) }, nil
	case ARIMA:
		return func() Model { return NewARIMA(cfg.ARIMA.P, cfg.ARIMA.D, cfg.ARIMA.Q) }, nil
	case ETS:
		opt := cfg.ETS
		return func() Model { return NewETS(&opt) }, nil
	}
	return nil, fmt.Errorf("%s, %w", name, ErrUnknownStrategy)
}

// RollingScore predicts one step, appends the actual and repeats over holdout, scoring the
// predictions with metric. The model state is advanced by the whole holdout.
func RollingScore(m Model, holdout []float64, metric score.Metric) (float64, error) {
	if len(holdout) == 0 {
		return 0, score.ErrNoObservations
	}

	predicted := make([]float64, len(holdout))
	for i, actual := range holdout {
		pred, err := m.Predict(1)
		if err != nil {
			return 0, fmt.Errorf("step %d, %w", i, err)
		}
		predicted[i] = pred[0]
		if err := m.Append(actual); err != nil {
			return 0, fmt.Errorf("step %d, %w", i, err)
		}
	}
	return metric.Compute(predicted, holdout)
}

func insufficient(name Name, need, got int) error {
	return fmt.Errorf("%s needs %d observations, got %d, %w", name, need, got, ErrInsufficientHistory)
}

func validHorizon(horizon int) error {
	if horizon < 1 {
		return fmt.Errorf("horizon %d, %w", horizon, ErrInvalidHorizon)
	}
	return nil
}
