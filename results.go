package ensemble

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aouyang1/go-ensemble/crossval"
	"github.com/aouyang1/go-ensemble/models"
	"github.com/aouyang1/go-ensemble/score"
	"github.com/aouyang1/go-ensemble/walkforward"
	"github.com/google/uuid"
)

// Result is everything a run produced. T holds the timestamps of the test window aligned with the
// forecast.
type Result struct {
	ID            uuid.UUID
	Selected      models.Name
	SelectedScore float64
	Metric        score.Metric
	Family        score.Family
	Bagging       bool
	Policy        walkforward.Policy
	Summary       crossval.Summary
	Frequency     time.Duration
	T             []time.Time
	Forecast      *walkforward.Result
	Reservoir     *ReservoirResult
	Elapsed       time.Duration
}

// TablePrint writes a human readable report of the run
func (r *Result) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%sRun: %s\n", prefix, r.ID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sSelected: %s, mean %s %.4f\n",
		prefix, strings.Repeat(indent, 1), r.Selected, r.Metric, r.SelectedScore); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sBagging: %t, Policy: %s\n",
		prefix, strings.Repeat(indent, 1), r.Bagging, r.Policy); err != nil {
		return err
	}
	if r.Frequency > 0 {
		if _, err := fmt.Fprintf(w, "%s%sFrequency: %s\n", prefix, strings.Repeat(indent, 1), r.Frequency); err != nil {
			return err
		}
	}
	if err := r.Summary.TablePrint(w, prefix, indent, 1); err != nil {
		return err
	}

	if r.Forecast != nil {
		if _, err := fmt.Fprintf(w, "%s%sWalk Forward: %d steps, %s %.4f\n",
			prefix, strings.Repeat(indent, 1), len(r.Forecast.Predictions), r.Forecast.Metric, r.Forecast.Score); err != nil {
			return err
		}
	}

	if r.Reservoir == nil {
		return nil
	}
	if r.Reservoir.Err != "" {
		_, err := fmt.Fprintf(w, "%s%sReservoir: failed, %s\n", prefix, strings.Repeat(indent, 1), r.Reservoir.Err)
		return err
	}
	_, err := fmt.Fprintf(w, "%s%sReservoir: %s %.4f\n", prefix, strings.Repeat(indent, 1), r.Metric, r.Reservoir.Score)
	return err
}
