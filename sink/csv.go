package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/aouyang1/go-ensemble"
)

// CSV writes one Observation,Prediction row per test step after a header. NaN is written as NaN.
type CSV struct {
	w io.Writer
}

func NewCSV(w io.Writer) *CSV {
	return &CSV{w: w}
}

func (c *CSV) Write(ctx context.Context, res *ensemble.Result) error {
	if err := check(res); err != nil {
		return err
	}

	w := csv.NewWriter(c.w)
	if err := w.Write([]string{"Observation", "Prediction"}); err != nil {
		return err
	}
	for i, pred := range res.Forecast.Predictions {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{
			strconv.FormatFloat(res.Forecast.Observations[i], 'g', -1, 64),
			strconv.FormatFloat(pred, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("row %d, %w", i, err)
		}
	}
	w.Flush()
	return w.Error()
}

// CSVFile creates or truncates the file at Path on every write
type CSVFile struct {
	Path string
}

func (c CSVFile) Write(ctx context.Context, res *ensemble.Result) error {
	if err := check(res); err != nil {
		return err
	}
	f, err := os.Create(c.Path)
	if err != nil {
		return err
	}
	if err := NewCSV(f).Write(ctx, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
