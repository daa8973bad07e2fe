// Package report renders a run as an Apache Echarts html page
package report

import (
	"errors"
	"io"
	"math"
	"os"
	"time"

	"github.com/aouyang1/go-ensemble"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var ErrNoForecast = errors.New("result has no forecast to plot")

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. Every
// series must have the same length as t. Points where the first series is NaN are dropped.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	lineData := make([][]opts.LineData, len(y))
	filteredT := make([]time.Time, 0, len(t))
	for j := range t {
		if len(y) > 0 && math.IsNaN(y[0][j]) {
			continue
		}
		filteredT = append(filteredT, t[j])
		for i := range y {
			var val any = y[i][j]
			if math.IsNaN(y[i][j]) {
				val = "-"
			}
			lineData[i] = append(lineData[i], opts.LineData{Value: val})
		}
	}

	line = line.SetXAxis(filteredT)
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData[i])
	}
	return line
}

// BarScores generates a bar chart of the mean cross validation score per strategy. Strategies
// without a scored fold are shown empty.
func BarScores(res *ensemble.Result) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title:    "Cross Validation",
				Subtitle: "mean " + res.Metric.String() + " per strategy",
			},
		),
	)

	names := make([]string, 0, len(res.Summary.Strategies))
	data := make([]opts.BarData, 0, len(res.Summary.Strategies))
	for _, st := range res.Summary.Strategies {
		names = append(names, st.Name.String())
		var val any = st.Mean
		if !st.Eligible() {
			val = "-"
		}
		data = append(data, opts.BarData{Value: val})
	}
	return bar.SetXAxis(names).AddSeries(res.Metric.String(), data)
}

// Render writes the walk forward fit, its error and the cross validation scores of res
func Render(w io.Writer, res *ensemble.Result) error {
	if res == nil || res.Forecast == nil {
		return ErrNoForecast
	}
	fc := res.Forecast

	names := []string{"Observation", "Prediction"}
	series := [][]float64{fc.Observations, fc.Predictions}
	if res.Reservoir != nil && len(res.Reservoir.Predictions) == len(fc.Observations) {
		names = append(names, "Reservoir")
		series = append(series, res.Reservoir.Predictions)
	}

	residual := make([]float64, len(fc.Observations))
	for i := range residual {
		residual[i] = fc.Observations[i] - fc.Predictions[i]
	}

	page := components.NewPage()
	page.AddCharts(
		LineTSeries("Walk Forward "+res.Selected.String(), names, res.T, series),
		LineTSeries("Walk Forward Residual", []string{"Residual"}, res.T, [][]float64{residual}),
		BarScores(res),
	)
	return page.Render(w)
}

// Plot renders res into an html file at path
func Plot(path string, res *ensemble.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return Render(file, res)
}
