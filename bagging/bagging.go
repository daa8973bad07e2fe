// Package bagging wraps a forecast strategy in a bootstrap aggregated ensemble. Every member is fit
// on its own resample of the history and forecasts are combined elementwise.
package bagging

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/aouyang1/go-ensemble/models"
	"github.com/aouyang1/go-ensemble/score"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrNoBaseModel    = errors.New("no base model factory")
	ErrInvalidMembers = errors.New("number of members must be positive")
	ErrNoMembers      = errors.New("no ensemble member could be fit")
	ErrUnknownOption  = errors.New("unknown bagging option")
)

// Resampler selects how bootstrap series are built
type Resampler int

const (
	// ResampleResiduals adds bootstrapped residuals of a reference fit to its fitted values, which
	// keeps the temporal structure of the history
	ResampleResiduals Resampler = iota
	// ResampleObservations draws observations with replacement
	ResampleObservations
)

func (r Resampler) String() string {
	switch r {
	case ResampleResiduals:
		return "residuals"
	case ResampleObservations:
		return "observations"
	}
	return fmt.Sprintf("resampler(%d)", int(r))
}

// ParseResampler maps "residuals" or "observations" to a Resampler
func ParseResampler(s string) (Resampler, error) {
	switch s {
	case "residuals", "":
		return ResampleResiduals, nil
	case "observations":
		return ResampleObservations, nil
	}
	return 0, fmt.Errorf("resampler %q, %w", s, ErrUnknownOption)
}

// Aggregator combines member forecasts
type Aggregator int

const (
	Mean Aggregator = iota
	Median
)

func (a Aggregator) String() string {
	switch a {
	case Mean:
		return "mean"
	case Median:
		return "median"
	}
	return fmt.Sprintf("aggregator(%d)", int(a))
}

// ParseAggregator maps "mean" or "median" to an Aggregator
func ParseAggregator(s string) (Aggregator, error) {
	switch s {
	case "mean", "":
		return Mean, nil
	case "median":
		return Median, nil
	}
	return 0, fmt.Errorf("aggregator %q, %w", s, ErrUnknownOption)
}

// Options configures the ensemble
type Options struct {
	Members    int
	Seed       uint64
	Resample   Resampler
	Aggregator Aggregator
}

func NewDefaultOptions() *Options {
	return &Options{
		Members:    10,
		Seed:       1,
		Resample:   ResampleResiduals,
		Aggregator: Mean,
	}
}

// Validate checks the options, a nil receiver resolves to the defaults
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if o.Members < 1 {
		return nil, fmt.Errorf("%d members, %w", o.Members, ErrInvalidMembers)
	}
	if o.Resample != ResampleResiduals && o.Resample != ResampleObservations {
		return nil, fmt.Errorf("%s, %w", o.Resample, ErrUnknownOption)
	}
	if o.Aggregator != Mean && o.Aggregator != Median {
		return nil, fmt.Errorf("%s, %w", o.Aggregator, ErrUnknownOption)
	}
	return o, nil
}

// Bootstrap draws n indices uniformly with replacement from [0, n)
func Bootstrap(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.IntN(n)
	}
	return idx
}

// Ensemble is a bagged forecast strategy. It satisfies models.Model so it is scored and walked
// forward like any single strategy.
type Ensemble struct {
	base       models.Factory
	name       models.Name
	minHistory int
	opt        Options

	members  []models.Model
	excluded int

	history []float64
	fitted  []float64
}

var _ models.Model = (*Ensemble)(nil)

func New(base models.Factory, opt *Options) (*Ensemble, error) {
	if base == nil {
		return nil, ErrNoBaseModel
	}
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	probe := base()
	return &Ensemble{
		base:       base,
		name:       probe.Name(),
		minHistory: probe.MinHistory(),
		opt:        *opt,
	}, nil
}

// Factory returns a models.Factory building fresh ensembles around base
func Factory(base models.Factory, opt *Options) (models.Factory, error) {
	if _, err := New(base, opt); err != nil {
		return nil, err
	}
	return func() models.Model {
		e, _ := New(base, opt)
		return e
	}, nil
}

func (e *Ensemble) Name() models.Name {
	return e.name
}

func (e *Ensemble) MinHistory() int {
	return e.minHistory
}

// Excluded returns how many members failed to fit during the last Fit
func (e *Ensemble) Excluded() int {
	return e.excluded
}

// Size returns the number of fitted members
func (e *Ensemble) Size() int {
	return len(e.members)
}

func (e *Ensemble) Fit(y []float64) error {
	if len(y) < e.minHistory {
		return fmt.Errorf("%s ensemble needs %d observations, got %d, %w",
			e.name, e.minHistory, len(y), models.ErrInsufficientHistory)
	}

	// the reference fit provides the in-sample fit and the residual pool
	ref := e.base()
	if err := ref.Fit(y); err != nil {
		return fmt.Errorf("unable to fit reference %s model, %w", e.name, err)
	}
	refFitted := ref.Fitted()
	resid := make([]float64, len(y))
	floats.SubTo(resid, y, refFitted)

	e.members = e.members[:0]
	e.excluded = 0
	var lastErr error
	sample := make([]float64, len(y))
	for m := 0; m < e.opt.Members; m++ {
		rng := rand.New(rand.NewPCG(e.opt.Seed, uint64(m)))
		idx := Bootstrap(rng, len(y))
		for i, j := range idx {
			switch e.opt.Resample {
			case ResampleObservations:
				sample[i] = y[j]
			default:
				sample[i] = refFitted[i] + resid[j]
			}
		}

		member := e.base()
		if err := member.Fit(sample); err != nil {
			e.excluded++
			lastErr = err
			continue
		}
		e.members = append(e.members, member)
	}
	if len(e.members) == 0 {
		return fmt.Errorf("%d of %d %s members failed, %w, %w", e.excluded, e.opt.Members, e.name, ErrNoMembers, lastErr)
	}

	e.history = append(make([]float64, 0, len(y)), y...)
	e.fitted = refFitted
	return nil
}

func (e *Ensemble) Predict(horizon int) ([]float64, error) {
	if len(e.members) == 0 {
		return nil, models.ErrUntrained
	}
	if horizon < 1 {
		return nil, fmt.Errorf("horizon %d, %w", horizon, models.ErrInvalidHorizon)
	}

	forecasts := make([][]float64, len(e.members))
	for i, m := range e.members {
		f, err := m.Predict(horizon)
		if err != nil {
			return nil, fmt.Errorf("member %d, %w", i, err)
		}
		forecasts[i] = f
	}
	return e.aggregate(forecasts, horizon), nil
}

func (e *Ensemble) aggregate(forecasts [][]float64, horizon int) []float64 {
	res := make([]float64, horizon)
	col := make([]float64, len(forecasts))
	for h := range res {
		for i, f := range forecasts {
			col[i] = f[h]
		}
		switch e.opt.Aggregator {
		case Median:
			res[h] = median(col)
		default:
			res[h] = floats.Sum(col) / float64(len(col))
		}
	}
	return res
}

func median(x []float64) float64 {
	s := slices.Clone(x)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Append forwards the observations to every member
func (e *Ensemble) Append(obs ...float64) error {
	if len(e.members) == 0 {
		return models.ErrUntrained
	}
	for _, v := range obs {
		pred, err := e.Predict(1)
		if err != nil {
			return err
		}
		for i, m := range e.members {
			if err := m.Append(v); err != nil {
				return fmt.Errorf("member %d, %w", i, err)
			}
		}
		e.fitted = append(e.fitted, pred[0])
		e.history = append(e.history, v)
	}
	return nil
}

// Fitted returns the reference in-sample fit followed by the aggregated one step predictions of
// appended observations
func (e *Ensemble) Fitted() []float64 {
	return append([]float64(nil), e.fitted...)
}

func (e *Ensemble) Score(holdout []float64, metric score.Metric) (float64, error) {
	return models.RollingScore(e, holdout, metric)
}
