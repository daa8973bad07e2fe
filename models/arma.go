package models

import (
	"github.com/aouyang1/go-ensemble/score"
)

// ARModel is an autoregression of order p fit by least squares
type ARModel struct {
	proc *linearProcess
}

var _ Model = (*ARModel)(nil)

func NewAR(p int) *ARModel {
	return &ARModel{proc: newLinearProcess(max(p, 1), 0)}
}

func (a *ARModel) Name() Name {
	return AR
}

func (a *ARModel) MinHistory() int {
	return a.proc.minHistory()
}

func (a *ARModel) Fit(y []float64) error {
	if len(y) < a.MinHistory() {
		return insufficient(AR, a.MinHistory(), len(y))
	}
	if err := checkFinite(y); err != nil {
		return err
	}
	return a.proc.fit(y)
}

func (a *ARModel) Predict(horizon int) ([]float64, error) {
	return a.proc.predict(horizon)
}

func (a *ARModel) Append(obs ...float64) error {
	return a.proc.append(obs...)
}

func (a *ARModel) Fitted() []float64 {
	return a.proc.fittedValues()
}

func (a *ARModel) Score(holdout []float64, metric score.Metric) (float64, error) {
	return RollingScore(a, holdout, metric)
}

// Coef returns the intercept followed by the lag coefficients
func (a *ARModel) Coef() []float64 {
	return append([]float64{a.proc.intercept}, a.proc.phi...)
}

// ARMAModel is an ARMA(p,q) process estimated with the two stage Hannan-Rissanen regression
type ARMAModel struct {
	proc *linearProcess
}

var _ Model = (*ARMAModel)(nil)

func NewARMA(p, q int) *ARMAModel {
	return &ARMAModel{proc: newLinearProcess(max(p, 0), max(q, 0))}
}

func (a *ARMAModel) Name() Name {
	return ARMA
}

func (a *ARMAModel) MinHistory() int {
	return a.proc.minHistory()
}

func (a *ARMAModel) Fit(y []float64) error {
	if len(y) < a.MinHistory() {
		return insufficient(ARMA, a.MinHistory(), len(y))
	}
	if err := checkFinite(y); err != nil {
		return err
	}
	return a.proc.fit(y)
}

func (a *ARMAModel) Predict(horizon int) ([]float64, error) {
	return a.proc.predict(horizon)
}

func (a *ARMAModel) Append(obs ...float64) error {
	return a.proc.append(obs...)
}

func (a *ARMAModel) Fitted() []float64 {
	return a.proc.fittedValues()
}

func (a *ARMAModel) Score(holdout []float64, metric score.Metric) (float64, error) {
	return RollingScore(a, holdout, metric)
}
