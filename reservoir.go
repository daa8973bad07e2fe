package ensemble

import (
	"context"

	"github.com/aouyang1/go-ensemble/timedataset"
)

// ReservoirRunner runs an external reservoir computing network on the same split as the engine and
// returns its one prediction per test observation with its score
type ReservoirRunner interface {
	Run(ctx context.Context, train, test *timedataset.TimeDataset, cfg map[string]any) ([]float64, float64, error)
}

// ReservoirResult records the outcome of the optional reservoir comparison. Err is set instead of
// failing the run.
type ReservoirResult struct {
	Predictions []float64
	Score       float64
	Err         string
}
