package sink

import (
	"context"
	"io"
	"math"
	"os"
	"time"

	"github.com/aouyang1/go-ensemble"
	"github.com/goccy/go-json"
)

// Document is the JSON form of a run. Non finite scores are encoded as null.
type Document struct {
	ID            string      `json:"id"`
	Selected      string      `json:"selected"`
	SelectedScore *float64    `json:"selected_score"`
	Metric        string      `json:"metric"`
	Family        string      `json:"family"`
	Bagging       bool        `json:"bagging"`
	Policy        string      `json:"policy"`
	Strategies    []Strategy  `json:"cross_validation"`
	FrequencySec  float64     `json:"frequency_seconds"`
	Time          []time.Time `json:"time"`
	Observations  []*float64  `json:"observations"`
	Predictions   []*float64  `json:"predictions"`
	Score         *float64    `json:"score"`
	Reservoir     *Reservoir  `json:"reservoir,omitempty"`
	ElapsedMs     int64       `json:"elapsed_ms"`
}

type Strategy struct {
	Name     string     `json:"name"`
	Mean     *float64   `json:"mean"`
	Folds    []*float64 `json:"folds"`
	Excluded int        `json:"excluded"`
}

type Reservoir struct {
	Predictions []*float64 `json:"predictions,omitempty"`
	Score       *float64   `json:"score"`
	Err         string     `json:"error,omitempty"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finiteSlice(x []float64) []*float64 {
	res := make([]*float64, len(x))
	for i, v := range x {
		res[i] = finite(v)
	}
	return res
}

// NewDocument converts a result into its JSON form
func NewDocument(res *ensemble.Result) (*Document, error) {
	if err := check(res); err != nil {
		return nil, err
	}

	doc := &Document{
		ID:            res.ID.String(),
		Selected:      res.Selected.String(),
		SelectedScore: finite(res.SelectedScore),
		Metric:        res.Metric.String(),
		Family:        res.Family.String(),
		Bagging:       res.Bagging,
		Policy:        res.Policy.String(),
		FrequencySec:  res.Frequency.Seconds(),
		Time:          res.T,
		Observations:  finiteSlice(res.Forecast.Observations),
		Predictions:   finiteSlice(res.Forecast.Predictions),
		Score:         finite(res.Forecast.Score),
		ElapsedMs:     res.Elapsed.Milliseconds(),
	}
	for _, st := range res.Summary.Strategies {
		doc.Strategies = append(doc.Strategies, Strategy{
			Name:     st.Name.String(),
			Mean:     finite(st.Mean),
			Folds:    finiteSlice(st.Folds),
			Excluded: st.Excluded,
		})
	}
	if res.Reservoir != nil {
		doc.Reservoir = &Reservoir{
			Predictions: finiteSlice(res.Reservoir.Predictions),
			Score:       finite(res.Reservoir.Score),
			Err:         res.Reservoir.Err,
		}
	}
	return doc, nil
}

// JSON encodes the run as a single indented document
type JSON struct {
	w io.Writer
}

func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

func (j *JSON) Write(ctx context.Context, res *ensemble.Result) error {
	doc, err := NewDocument(res)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.EncodeContext(ctx, doc)
}

// JSONFile creates or truncates the file at Path on every write
type JSONFile struct {
	Path string
}

func (j JSONFile) Write(ctx context.Context, res *ensemble.Result) error {
	doc, err := NewDocument(res)
	if err != nil {
		return err
	}
	bytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(j.Path, bytes, 0o644)
}
