package models

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-ensemble/score"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

const (
	minDamping   = 0.8
	dampingRange = 0.18
)

// ETSOptions configures additive Holt-Winters exponential smoothing. A smoothing parameter left at
// zero is fit by minimizing the one step squared error.
type ETSOptions struct {
	Trend          bool `mapstructure:"trend" json:"trend"`
	Damped         bool `mapstructure:"damped" json:"damped"`
	SeasonalPeriod int  `mapstructure:"seasonal_period" json:"seasonal_period"`

	Alpha float64 `mapstructure:"alpha" json:"alpha,omitempty"`
	Beta  float64 `mapstructure:"beta" json:"beta,omitempty"`
	Gamma float64 `mapstructure:"gamma" json:"gamma,omitempty"`
	Phi   float64 `mapstructure:"phi" json:"phi,omitempty"`

	MaxEvaluations int `mapstructure:"max_evaluations" json:"max_evaluations"`
}

func NewDefaultETSOptions() *ETSOptions {
	return &ETSOptions{
		Trend:          true,
		SeasonalPeriod: 24,
		MaxEvaluations: 400,
	}
}

func (o *ETSOptions) Validate() error {
	if o.SeasonalPeriod < 0 || o.SeasonalPeriod == 1 {
		return fmt.Errorf("ets seasonal period %d, %w", o.SeasonalPeriod, ErrInvalidOrder)
	}
	for name, v := range map[string]float64{"alpha": o.Alpha, "beta": o.Beta, "gamma": o.Gamma} {
		if v < 0 || v >= 1 {
			return fmt.Errorf("ets %s %.3f not in [0, 1), %w", name, v, ErrInvalidOrder)
		}
	}
	if o.Phi < 0 || o.Phi > 1 {
		return fmt.Errorf("ets phi %.3f not in [0, 1], %w", o.Phi, ErrInvalidOrder)
	}
	if o.MaxEvaluations < 0 {
		return fmt.Errorf("ets max evaluations %d, %w", o.MaxEvaluations, ErrInvalidOrder)
	}
	return nil
}

type etsParams struct {
	alpha, beta, gamma, phi float64
}

type etsState struct {
	level  float64
	trend  float64
	season []float64
	pos    int
}

func (s etsState) copy() etsState {
	s.season = append([]float64(nil), s.season...)
	return s
}

func (s *etsState) predict(p etsParams) float64 {
	pred := s.level + p.phi*s.trend
	if len(s.season) > 0 {
		pred += s.season[s.pos]
	}
	return pred
}

// step advances the state by one observation and returns the prediction made before seeing it
func (s *etsState) step(p etsParams, y float64) float64 {
	pred := s.predict(p)

	var seas float64
	if len(s.season) > 0 {
		seas = s.season[s.pos]
	}
	prevLevel := s.level
	dampedTrend := p.phi * s.trend

	s.level = p.alpha*(y-seas) + (1-p.alpha)*(prevLevel+dampedTrend)
	s.trend = p.beta*(s.level-prevLevel) + (1-p.beta)*dampedTrend
	if len(s.season) > 0 {
		s.season[s.pos] = p.gamma*(y-prevLevel-dampedTrend) + (1-p.gamma)*seas
		s.pos = (s.pos + 1) % len(s.season)
	}
	return pred
}

// ETSModel is additive Holt-Winters exponential smoothing with optional damped trend and season
type ETSModel struct {
	opt ETSOptions

	params etsParams
	state  etsState

	history []float64
	fitted  []float64
	trained bool
}

var _ Model = (*ETSModel)(nil)

// NewETS returns an unfitted model, a nil opt uses the defaults
func NewETS(opt *ETSOptions) *ETSModel {
	if opt == nil {
		opt = NewDefaultETSOptions()
	}
	return &ETSModel{opt: *opt}
}

func (e *ETSModel) Name() Name {
	return ETS
}

func (e *ETSModel) MinHistory() int {
	switch {
	case e.opt.SeasonalPeriod > 1:
		return 2 * e.opt.SeasonalPeriod
	case e.opt.Trend:
		return 3
	default:
		return 2
	}
}

// initial returns the state before the first recursion step and the index of that step
func (e *ETSModel) initial(y []float64) (etsState, int) {
	m := e.opt.SeasonalPeriod
	if m < 2 {
		st := etsState{level: y[0]}
		if e.opt.Trend {
			st.trend = y[1] - y[0]
		}
		return st, 1
	}

	first := floats.Sum(y[:m]) / float64(m)
	st := etsState{level: first, season: make([]float64, m)}
	if e.opt.Trend {
		second := floats.Sum(y[m:2*m]) / float64(m)
		st.trend = (second - first) / float64(m)
	}
	for i := 0; i < m; i++ {
		st.season[i] = y[i] - first
	}
	return st, 0
}

func (e *ETSModel) fixedParams() etsParams {
	p := etsParams{alpha: 0.3, phi: 1}
	if e.opt.Trend {
		p.beta = 0.1
		if e.opt.Damped {
			p.phi = 0.9
		}
	}
	if e.opt.SeasonalPeriod > 1 {
		p.gamma = 0.1
	}
	if e.opt.Alpha > 0 {
		p.alpha = e.opt.Alpha
	}
	if e.opt.Trend && e.opt.Beta > 0 {
		p.beta = e.opt.Beta
	}
	if e.opt.SeasonalPeriod > 1 && e.opt.Gamma > 0 {
		p.gamma = e.opt.Gamma
	}
	if e.opt.Trend && e.opt.Damped && e.opt.Phi > 0 {
		p.phi = e.opt.Phi
	}
	return p
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// freeParams lists the parameters left to the optimizer
type freeParams struct {
	alpha, beta, gamma, phi bool
}

func (e *ETSModel) freeParams() freeParams {
	return freeParams{
		alpha: e.opt.Alpha == 0,
		beta:  e.opt.Trend && e.opt.Beta == 0,
		gamma: e.opt.SeasonalPeriod > 1 && e.opt.Gamma == 0,
		phi:   e.opt.Trend && e.opt.Damped && e.opt.Phi == 0,
	}
}

func (f freeParams) encode(p etsParams) []float64 {
	var x []float64
	if f.alpha {
		x = append(x, logit(p.alpha))
	}
	if f.beta {
		x = append(x, logit(p.beta))
	}
	if f.gamma {
		x = append(x, logit(p.gamma))
	}
	if f.phi {
		x = append(x, logit((p.phi-minDamping)/dampingRange))
	}
	return x
}

func (f freeParams) decode(x []float64, base etsParams) etsParams {
	p := base
	i := 0
	if f.alpha {
		p.alpha = sigmoid(x[i])
		i++
	}
	if f.beta {
		p.beta = sigmoid(x[i])
		i++
	}
	if f.gamma {
		p.gamma = sigmoid(x[i])
		i++
	}
	if f.phi {
		p.phi = minDamping + dampingRange*sigmoid(x[i])
	}
	return p
}

func sse(init etsState, start int, y []float64, p etsParams) float64 {
	st := init.copy()
	var total float64
	for t := start; t < len(y); t++ {
		r := y[t] - st.step(p, y[t])
		total += r * r
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return math.MaxFloat64
	}
	return total
}

func (e *ETSModel) Fit(y []float64) error {
	if len(y) < e.MinHistory() {
		return insufficient(ETS, e.MinHistory(), len(y))
	}
	if err := checkFinite(y); err != nil {
		return err
	}

	init, start := e.initial(y)
	params := e.fixedParams()

	f := e.freeParams()
	x0 := f.encode(params)
	if _, flat := isConstant(y); !flat && len(x0) > 0 {
		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				return sse(init, start, y, f.decode(x, params))
			},
		}
		settings := &optimize.Settings{FuncEvaluations: e.opt.MaxEvaluations}
		res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
		// keep the starting parameters when the search fails to improve on them
		if err == nil && res != nil && res.F < sse(init, start, y, params) {
			params = f.decode(res.X, params)
		}
	}

	e.params = params
	e.state = init.copy()
	e.history = append(make([]float64, 0, len(y)), y...)
	e.fitted = make([]float64, len(y))
	copy(e.fitted, y[:start])
	for t := start; t < len(y); t++ {
		e.fitted[t] = e.state.step(e.params, y[t])
	}
	e.trained = true
	return nil
}

func (e *ETSModel) Predict(horizon int) ([]float64, error) {
	if !e.trained {
		return nil, ErrUntrained
	}
	if err := validHorizon(horizon); err != nil {
		return nil, err
	}

	res := make([]float64, horizon)
	var damp, cum float64 = 1, 0
	m := len(e.state.season)
	for h := range res {
		damp *= e.params.phi
		cum += damp
		res[h] = e.state.level + cum*e.state.trend
		if m > 0 {
			res[h] += e.state.season[(e.state.pos+h)%m]
		}
	}
	return res, nil
}

func (e *ETSModel) Append(obs ...float64) error {
	if !e.trained {
		return ErrUntrained
	}
	if err := checkFinite(obs); err != nil {
		return err
	}
	for _, v := range obs {
		e.fitted = append(e.fitted, e.state.step(e.params, v))
		e.history = append(e.history, v)
	}
	return nil
}

func (e *ETSModel) Fitted() []float64 {
	return append([]float64(nil), e.fitted...)
}

func (e *ETSModel) Score(holdout []float64, metric score.Metric) (float64, error) {
	return RollingScore(e, holdout, metric)
}
