// Package metrics records model selection progress as Prometheus metrics. A nil *Recorder is valid
// and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fold outcomes
const (
	OutcomeScored   = "scored"
	OutcomeExcluded = "excluded"
	OutcomeFailed   = "failed"
)

// Recorder holds the counters and histograms of a run on its own registry
type Recorder struct {
	registry *prometheus.Registry

	Folds         *prometheus.CounterVec
	FoldDuration  *prometheus.HistogramVec
	Steps         *prometheus.CounterVec
	StepDuration  *prometheus.HistogramVec
	MeanScore     *prometheus.GaugeVec
	Selections    *prometheus.CounterVec
	MembersFailed *prometheus.CounterVec
}

// NewRecorder creates and registers all metrics on a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		Folds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ensemble_cv_folds_total",
				Help: "Cross validation folds evaluated per strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		FoldDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ensemble_cv_fold_duration_seconds",
				Help:    "Time to fit and score a single fold",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"strategy"},
		),
		Steps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ensemble_walkforward_steps_total",
				Help: "Walk forward steps forecast per strategy",
			},
			[]string{"strategy", "policy"},
		),
		StepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ensemble_walkforward_step_duration_seconds",
				Help:    "Time to fit and forecast a single walk forward step",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"strategy", "policy"},
		),
		MeanScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ensemble_cv_mean_score",
				Help: "Mean cross validation score per strategy",
			},
			[]string{"strategy", "metric"},
		),
		Selections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ensemble_selections_total",
				Help: "Number of times a strategy was selected",
			},
			[]string{"strategy"},
		),
		MembersFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ensemble_bagging_members_failed_total",
				Help: "Bagging ensemble members that failed to fit",
			},
			[]string{"strategy"},
		),
	}
}

// Registry exposes the underlying registry for exporters
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveFold(strategy, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.Folds.WithLabelValues(strategy, outcome).Inc()
	r.FoldDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

func (r *Recorder) ObserveStep(strategy, policy string, d time.Duration) {
	if r == nil {
		return
	}
	r.Steps.WithLabelValues(strategy, policy).Inc()
	r.StepDuration.WithLabelValues(strategy, policy).Observe(d.Seconds())
}

func (r *Recorder) SetMeanScore(strategy, metric string, v float64) {
	if r == nil {
		return
	}
	r.MeanScore.WithLabelValues(strategy, metric).Set(v)
}

func (r *Recorder) ObserveSelection(strategy string) {
	if r == nil {
		return
	}
	r.Selections.WithLabelValues(strategy).Inc()
}

func (r *Recorder) AddMembersFailed(strategy string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.MembersFailed.WithLabelValues(strategy).Add(float64(n))
}

// WriteToTextfile writes every metric in the text exposition format for the node exporter
// textfile collector
func (r *Recorder) WriteToTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
