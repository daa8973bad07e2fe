package models

import (
	"github.com/aouyang1/go-ensemble/score"
)

// ARIMAModel differences the history d times, fits ARMA(p,q) on the result and integrates the
// forecasts back to the original scale
type ARIMAModel struct {
	d     int
	proc  *linearProcess
	tails []float64

	history []float64
	fitted  []float64
}

var _ Model = (*ARIMAModel)(nil)

func NewARIMA(p, d, q int) *ARIMAModel {
	return &ARIMAModel{
		d:    max(d, 0),
		proc: newLinearProcess(max(p, 0), max(q, 0)),
	}
}

func (a *ARIMAModel) Name() Name {
	return ARIMA
}

func (a *ARIMAModel) MinHistory() int {
	return a.d + a.proc.minHistory()
}

func (a *ARIMAModel) Fit(y []float64) error {
	if len(y) < a.MinHistory() {
		return insufficient(ARIMA, a.MinHistory(), len(y))
	}
	if err := checkFinite(y); err != nil {
		return err
	}

	diff, tails := difference(y, a.d)
	if err := a.proc.fit(diff); err != nil {
		return err
	}
	a.tails = tails
	a.history = append(make([]float64, 0, len(y)), y...)

	// one step errors are identical on the differenced and original scale
	a.fitted = make([]float64, len(y))
	copy(a.fitted, y[:a.d])
	diffFitted := a.proc.fittedValues()
	for i, f := range diffFitted {
		t := i + a.d
		a.fitted[t] = y[t] - (diff[i] - f)
	}
	return nil
}

func (a *ARIMAModel) Predict(horizon int) ([]float64, error) {
	forecasts, err := a.proc.predict(horizon)
	if err != nil {
		return nil, err
	}
	return integrate(forecasts, a.tails), nil
}

func (a *ARIMAModel) Append(obs ...float64) error {
	if !a.proc.trained {
		return ErrUntrained
	}
	if err := checkFinite(obs); err != nil {
		return err
	}

	for _, v := range obs {
		pred, err := a.Predict(1)
		if err != nil {
			return err
		}
		a.fitted = append(a.fitted, pred[0])
		a.history = append(a.history, v)

		// walk the new observation down every differencing level
		cur := v
		for k := 0; k < a.d; k++ {
			next := cur - a.tails[k]
			a.tails[k] = cur
			cur = next
		}
		if err := a.proc.append(cur); err != nil {
			return err
		}
	}
	return nil
}

func (a *ARIMAModel) Fitted() []float64 {
	return append([]float64(nil), a.fitted...)
}

func (a *ARIMAModel) Score(holdout []float64, metric score.Metric) (float64, error) {
	return RollingScore(a, holdout, metric)
}
