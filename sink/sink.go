// Package sink persists the result of a run
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/aouyang1/go-ensemble"
)

var ErrNoResult = errors.New("no result to write")

// Sink accepts a finished run
type Sink interface {
	Write(ctx context.Context, res *ensemble.Result) error
}

// Multi writes to every sink in order and stops at the first failure
type Multi []Sink

func (m Multi) Write(ctx context.Context, res *ensemble.Result) error {
	for i, s := range m {
		if err := s.Write(ctx, res); err != nil {
			return fmt.Errorf("sink %d, %w", i, err)
		}
	}
	return nil
}

func check(res *ensemble.Result) error {
	if res == nil || res.Forecast == nil {
		return ErrNoResult
	}
	return nil
}
