package timedataset

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/aouyang1/go-ensemble/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestGenerateT(t *testing.T) {
	nowFunc := func() time.Time {
		return time.Date(1970, 1, 8, 0, 0, 0, 0, time.UTC)
	}

	numPnts := 7
	res := GenerateT(numPnts, 24*time.Hour, nowFunc)
	assert.Len(t, res, numPnts)

	assert.Equal(t, res[0], time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, res[numPnts-1], time.Date(1970, 1, 7, 0, 0, 0, 0, time.UTC))
}

func TestSeries(t *testing.T) {
	numPnts := 7
	s := GenerateConstY(numPnts, 1)

	res := s.Add(GenerateConstY(numPnts, 2))
	require.Equal(t, Series([]float64{3, 3, 3, 3, 3, 3, 3}), res)

	nowFunc := func() time.Time {
		return time.Date(1970, 1, 8, 0, 0, 0, 0, time.UTC)
	}
	tSeries := GenerateT(numPnts, 24*time.Hour, nowFunc)

	events := []event.Event{
		event.NewEvent("dip", time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC), time.Date(1970, 1, 5, 0, 0, 0, 0, time.UTC)),
	}
	s.Scale(tSeries, events, 0.5)
	assert.Equal(t, Series([]float64{3, 3, 1.5, 1.5, 3, 3, 3}), s)

	s.Add(GenerateConstY(numPnts, -2)).ClipBelow(0)
	assert.Equal(t, Series([]float64{1, 1, 0, 0, 1, 1, 1}), s)
}

func TestGenerateTrend(t *testing.T) {
	nowFunc := func() time.Time {
		return time.Date(1970, 1, 1, 4, 0, 0, 0, time.UTC)
	}
	tSeries := GenerateT(4, time.Hour, nowFunc)
	assert.Equal(t, Series([]float64{0, 2, 4, 6}), GenerateTrend(tSeries, 2))
	assert.Empty(t, GenerateTrend(nil, 2))
}

func TestGenerateNoise(t *testing.T) {
	a := GenerateNoise(rand.New(rand.NewPCG(7, 0)), 1000, 3)
	b := GenerateNoise(rand.New(rand.NewPCG(7, 0)), 1000, 3)
	assert.Equal(t, a, b)
	assert.InDelta(t, 3.0, stat.StdDev(a, nil), 0.3)
}

func TestSimulateRequestRate(t *testing.T) {
	testData := map[string]struct {
		opt *RequestRateOptions
		err error
	}{
		"defaults": {
			opt: nil,
		},
		"no points": {
			opt: &RequestRateOptions{Interval: time.Hour},
			err: ErrInvalidSimulation,
		},
		"no interval": {
			opt: &RequestRateOptions{Points: 10},
			err: ErrInvalidSimulation,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := SimulateRequestRate(td.opt)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			def := NewDefaultRequestRateOptions()
			assert.Equal(t, def.Points, res.Len())
			for _, v := range res.Y {
				assert.GreaterOrEqual(t, v, 0.0)
			}
			freq, err := TimeSlice(res.T).EstimateFreq()
			require.NoError(t, err)
			assert.Equal(t, def.Interval, freq)
		})
	}
}

func TestSimulateRequestRateHolidayDip(t *testing.T) {
	opt := NewDefaultRequestRateOptions()
	opt.NoiseScale = 0
	opt.WeeklyAmp = 0
	opt.TrendPerDay = 0

	withDip, err := SimulateRequestRate(opt)
	require.NoError(t, err)

	opt.HolidayFactor = 1
	noDip, err := SimulateRequestRate(opt)
	require.NoError(t, err)

	christmas := time.Date(2023, 12, 25, 12, 0, 0, 0, time.UTC)
	for i, ts := range withDip.T {
		if ts.Equal(christmas) {
			assert.InDelta(t, noDip.Y[i]*0.6, withDip.Y[i], 1e-9)
			return
		}
	}
	t.Fatal("christmas noon not in simulated range")
}
