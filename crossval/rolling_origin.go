// Package crossval scores forecast strategies with expanding window cross validation. Folds never
// look ahead: every validation block follows the whole prefix it is trained on.
package crossval

import (
	"errors"
	"fmt"
	"iter"
)

var (
	ErrInvalidFolds  = errors.New("number of folds must be positive")
	ErrTooManyFolds  = errors.New("more folds than observations")
	ErrNoCandidates  = errors.New("no candidate strategies")
	ErrNilFactory    = errors.New("candidate has no model factory")
	ErrNoObservation = errors.New("no observations to split")
)

// Range is the half open index interval [Start, End)
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Split pairs an expanding train prefix with the validation block that follows it
type Split struct {
	Fold       int   `json:"fold"`
	Train      Range `json:"train"`
	Validation Range `json:"validation"`
}

// RollingOrigin partitions a series of n observations into k folds with equal sized validation
// blocks at the end of the series
type RollingOrigin struct {
	n    int
	k    int
	size int
}

// NewRollingOrigin validates the fold count against the series length. The validation block size
// is n/(k+1) with a minimum of one observation.
func NewRollingOrigin(n, k int) (*RollingOrigin, error) {
	if k < 1 {
		return nil, fmt.Errorf("%d folds, %w", k, ErrInvalidFolds)
	}
	if n < 1 {
		return nil, ErrNoObservation
	}
	if k > n {
		return nil, fmt.Errorf("%d folds over %d observations, %w", k, n, ErrTooManyFolds)
	}

	size := n / (k + 1)
	if size < 1 {
		size = 1
	}
	return &RollingOrigin{n: n, k: k, size: size}, nil
}

// Folds returns the number of splits produced
func (r *RollingOrigin) Folds() int {
	return r.k
}

// ValidationSize returns the length of every validation block
func (r *RollingOrigin) ValidationSize() int {
	return r.size
}

func (r *RollingOrigin) split(i int) Split {
	start := r.n - (r.k-i)*r.size
	return Split{
		Fold:       i,
		Train:      Range{Start: 0, End: start},
		Validation: Range{Start: start, End: start + r.size},
	}
}

// Splits lazily yields the folds in time order. Every iteration produces the same sequence.
func (r *RollingOrigin) Splits() iter.Seq2[int, Split] {
	return func(yield func(int, Split) bool) {
		for i := 0; i < r.k; i++ {
			if !yield(i, r.split(i)) {
				return
			}
		}
	}
}

// All collects every split
func (r *RollingOrigin) All() []Split {
	res := make([]Split, 0, r.k)
	for _, s := range r.Splits() {
		res = append(res, s)
	}
	return res
}
