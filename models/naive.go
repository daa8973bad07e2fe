package models

import (
	"github.com/aouyang1/go-ensemble/score"
)

// NaiveModel forecasts the last observation, or the observation one season back when a seasonal
// period is set
type NaiveModel struct {
	period  int
	history []float64
	fitted  []float64
}

var _ Model = (*NaiveModel)(nil)

func NewNaive(seasonalPeriod int) *NaiveModel {
	return &NaiveModel{period: max(seasonalPeriod, 0)}
}

func (n *NaiveModel) Name() Name {
	return Naive
}

func (n *NaiveModel) lag() int {
	return max(n.period, 1)
}

func (n *NaiveModel) MinHistory() int {
	return n.lag()
}

func (n *NaiveModel) Fit(y []float64) error {
	if len(y) < n.MinHistory() {
		return insufficient(Naive, n.MinHistory(), len(y))
	}
	if err := checkFinite(y); err != nil {
		return err
	}

	n.history = append(make([]float64, 0, len(y)), y...)
	n.fitted = make([]float64, len(y))
	lag := n.lag()
	for i := range y {
		if i < lag {
			n.fitted[i] = y[i]
			continue
		}
		n.fitted[i] = y[i-lag]
	}
	return nil
}

func (n *NaiveModel) Predict(horizon int) ([]float64, error) {
	if n.history == nil {
		return nil, ErrUntrained
	}
	if err := validHorizon(horizon); err != nil {
		return nil, err
	}

	lag := n.lag()
	last := n.history[len(n.history)-lag:]
	res := make([]float64, horizon)
	for h := range res {
		res[h] = last[h%lag]
	}
	return res, nil
}

func (n *NaiveModel) Append(obs ...float64) error {
	if n.history == nil {
		return ErrUntrained
	}
	if err := checkFinite(obs); err != nil {
		return err
	}
	lag := n.lag()
	for _, v := range obs {
		n.fitted = append(n.fitted, n.history[len(n.history)-lag])
		n.history = append(n.history, v)
	}
	return nil
}

func (n *NaiveModel) Fitted() []float64 {
	return append([]float64(nil), n.fitted...)
}

func (n *NaiveModel) Score(holdout []float64, metric score.Metric) (float64, error) {
	return RollingScore(n, holdout, metric)
}
