package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.ObserveFold("ar", OutcomeScored, time.Millisecond)
	r.ObserveFold("ar", OutcomeScored, time.Millisecond)
	r.ObserveFold("ets", OutcomeExcluded, time.Millisecond)
	r.ObserveStep("ar", "refit", time.Microsecond)
	r.SetMeanScore("ar", "mae", 1.25)
	r.ObserveSelection("ar")
	r.AddMembersFailed("arma", 2)
	r.AddMembersFailed("arma", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Folds.WithLabelValues("ar", OutcomeScored)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Folds.WithLabelValues("ets", OutcomeExcluded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Steps.WithLabelValues("ar", "refit")))
	assert.Equal(t, 1.25, testutil.ToFloat64(r.MeanScore.WithLabelValues("ar", "mae")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Selections.WithLabelValues("ar")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.MembersFailed.WithLabelValues("arma")))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.ObserveFold("ar", OutcomeScored, time.Second)
	r.ObserveStep("ar", "reuse", time.Second)
	r.SetMeanScore("ar", "mae", 1)
	r.ObserveSelection("ar")
	r.AddMembersFailed("ar", 1)
	assert.Nil(t, r.Registry())
	assert.Nil(t, r.WriteToTextfile("unused"))
}

func TestWriteToTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveSelection("naive")

	path := filepath.Join(t.TempDir(), "ensemble.prom")
	require.Nil(t, r.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.True(t, strings.Contains(string(data), `ensemble_selections_total{strategy="naive"} 1`))
}
