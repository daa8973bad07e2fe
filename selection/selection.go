// Package selection picks the winning strategy from a cross validation summary
package selection

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-ensemble/crossval"
	"github.com/aouyang1/go-ensemble/models"
	"github.com/aouyang1/go-ensemble/score"
)

var ErrNoEligibleStrategy = errors.New("no strategy has a scored fold")

// Selection is the terminal choice of a run. It cannot be changed once made.
type Selection struct {
	name  models.Name
	score float64
}

func (s Selection) Name() models.Name {
	return s.name
}

// Score returns the mean cross validation score of the selected strategy
func (s Selection) Score() float64 {
	return s.score
}

func (s Selection) String() string {
	return fmt.Sprintf("%s (%.6g)", s.name, s.score)
}

// Select returns the strategy with the lowest mean for the error family and the highest mean for
// the score family. Ties go to the strategy earlier in the naive, ar, arma, arima, ets order
// regardless of the order of the summary. Strategies without a scored fold are skipped.
func Select(summary crossval.Summary, family score.Family) (Selection, error) {
	var better func(a, b float64) bool
	switch family {
	case score.Error:
		better = func(a, b float64) bool { return a < b }
	case score.Score:
		better = func(a, b float64) bool { return a > b }
	default:
		return Selection{}, fmt.Errorf("%s, %w", family, score.ErrUnknownFamily)
	}

	var best *crossval.StrategyScore
	for i := range summary.Strategies {
		st := &summary.Strategies[i]
		if !st.Eligible() {
			continue
		}
		if best == nil || better(st.Mean, best.Mean) || (st.Mean == best.Mean && st.Name < best.Name) {
			best = st
		}
	}
	if best == nil {
		return Selection{}, ErrNoEligibleStrategy
	}
	return Selection{name: best.Name, score: best.Mean}, nil
}
