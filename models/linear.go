package models

import (
	"fmt"

	"github.com/aouyang1/go-ensemble/linearmodel"
)

// linearProcess is an ARMA(p,q) recursion with intercept over a working series. Innovations are
// the one step errors of a long autoregression on the same series (Hannan-Rissanen), which keeps
// them a finite filter of the observations when the process is advanced with new data.
type linearProcess struct {
	p, q int

	intercept float64
	phi       []float64
	theta     []float64

	// long autoregression producing the innovations, unused when q is 0
	m             int
	longIntercept float64
	longPhi       []float64

	y      []float64
	innov  []float64
	fitted []float64

	trained bool
}

func newLinearProcess(p, q int) *linearProcess {
	return &linearProcess{p: p, q: q, m: longOrder(p, q)}
}

// longOrder is the order of the first stage autoregression
func longOrder(p, q int) int {
	if q == 0 {
		return 0
	}
	return max(p+q, 2*max(p, q), 4)
}

func (l *linearProcess) minHistory() int {
	if l.q == 0 {
		return 2*l.p + 2
	}
	return max(l.m+max(l.p, l.q)+l.p+l.q+2, 2*l.m+2)
}

// start is the first index with every lag available to the final recursion
func (l *linearProcess) start() int {
	if l.q == 0 {
		return l.p
	}
	return max(l.p, l.m+l.q)
}

func lagRow(y []float64, t, p int) []float64 {
	row := make([]float64, p)
	for i := 0; i < p; i++ {
		row[i] = y[t-1-i]
	}
	return row
}

// fitAutoregression regresses y_t on its p previous values
func fitAutoregression(y []float64, p int) (float64, []float64, error) {
	x := make([][]float64, 0, len(y)-p)
	target := make([]float64, 0, len(y)-p)
	for t := p; t < len(y); t++ {
		x = append(x, lagRow(y, t, p))
		target = append(target, y[t])
	}

	ols, err := linearmodel.NewOLSRegression(nil)
	if err != nil {
		return 0, nil, err
	}
	if err := ols.Fit(x, target); err != nil {
		return 0, nil, fmt.Errorf("unable to fit autoregression of order %d, %w", p, err)
	}
	return ols.Intercept(), ols.Coef(), nil
}

func (l *linearProcess) fit(y []float64) error {
	l.y = append(make([]float64, 0, len(y)), y...)
	l.innov = nil
	l.phi = make([]float64, l.p)
	l.theta = make([]float64, l.q)
	l.longPhi = make([]float64, l.m)

	if mean, flat := isConstant(y); flat {
		l.intercept = mean
		l.longIntercept = mean
		l.rebuild()
		return nil
	}

	if l.q == 0 {
		intercept, phi, err := fitAutoregression(y, l.p)
		if err != nil {
			return err
		}
		l.intercept, l.phi = intercept, phi
		l.rebuild()
		return nil
	}

	intercept, longPhi, err := fitAutoregression(y, l.m)
	if err != nil {
		return err
	}
	l.longIntercept, l.longPhi = intercept, longPhi
	l.innov = l.innovations(y)

	s := l.start()
	x := make([][]float64, 0, len(y)-s)
	target := make([]float64, 0, len(y)-s)
	for t := s; t < len(y); t++ {
		row := append(lagRow(y, t, l.p), lagRow(l.innov, t, l.q)...)
		x = append(x, row)
		target = append(target, y[t])
	}

	ols, err := linearmodel.NewOLSRegression(nil)
	if err != nil {
		return err
	}
	if err := ols.Fit(x, target); err != nil {
		return fmt.Errorf("unable to fit arma(%d,%d), %w", l.p, l.q, err)
	}
	coef := ols.Coef()
	l.intercept = ols.Intercept()
	l.phi = coef[:l.p]
	l.theta = coef[l.p:]
	l.rebuild()
	return nil
}

// innovations of the long autoregression, zero where its lags are not available
func (l *linearProcess) innovations(y []float64) []float64 {
	e := make([]float64, len(y))
	if l.m == 0 {
		return e
	}
	for t := l.m; t < len(y); t++ {
		e[t] = y[t] - l.longPredict(y, t)
	}
	return e
}

func (l *linearProcess) longPredict(y []float64, t int) float64 {
	pred := l.longIntercept
	for i, c := range l.longPhi {
		pred += c * y[t-1-i]
	}
	return pred
}

// predictAt is the one step prediction of y[t] from the values and innovations before t
func (l *linearProcess) predictAt(y, e []float64, t int) float64 {
	pred := l.intercept
	for i, c := range l.phi {
		pred += c * y[t-1-i]
	}
	for j, c := range l.theta {
		pred += c * e[t-1-j]
	}
	return pred
}

// rebuild recomputes innovations and in-sample fitted values with the final coefficients
func (l *linearProcess) rebuild() {
	if len(l.innov) != len(l.y) {
		l.innov = l.innovations(l.y)
	}
	l.fitted = make([]float64, len(l.y))
	s := l.start()
	for t := range l.y {
		if t < s {
			l.fitted[t] = l.y[t]
			continue
		}
		l.fitted[t] = l.predictAt(l.y, l.innov, t)
	}
	l.trained = true
}

func (l *linearProcess) predict(horizon int) ([]float64, error) {
	if !l.trained {
		return nil, ErrUntrained
	}
	if err := validHorizon(horizon); err != nil {
		return nil, err
	}

	n := len(l.y)
	y := make([]float64, n, n+horizon)
	copy(y, l.y)
	e := make([]float64, n, n+horizon)
	copy(e, l.innov)

	for h := 0; h < horizon; h++ {
		t := n + h
		y = append(y, l.predictAt(y, e, t))
		// future innovations have zero expectation
		e = append(e, 0)
	}
	return y[n:], nil
}

func (l *linearProcess) append(obs ...float64) error {
	if !l.trained {
		return ErrUntrained
	}
	if err := checkFinite(obs); err != nil {
		return err
	}
	for _, v := range obs {
		t := len(l.y)
		l.fitted = append(l.fitted, l.predictAt(l.y, l.innov, t))

		var e float64
		if l.m > 0 {
			e = v - l.longPredict(l.y, t)
		}
		l.y = append(l.y, v)
		l.innov = append(l.innov, e)
	}
	return nil
}

func (l *linearProcess) fittedValues() []float64 {
	return append([]float64(nil), l.fitted...)
}
