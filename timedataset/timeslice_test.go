package timedataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounds(t *testing.T) {
	testData := map[string]struct {
		tSlice TimeSlice
		start  time.Time
		end    time.Time
	}{
		"nil": {
			tSlice: nil,
		},
		"single point": {
			tSlice: TimeSlice{time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)},
			start:  time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			end:    time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		"daily": {
			tSlice: TimeSlice{
				time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
			},
			start: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.start, td.tSlice.StartTime())
			assert.Equal(t, td.end, td.tSlice.EndTime())
		})
	}
}

func TestEstimateFreq(t *testing.T) {
	testData := map[string]struct {
		tSlice   TimeSlice
		expected time.Duration
		err      error
	}{
		"estimate with nil timedataset": {
			tSlice: nil,
			err:    ErrCannotInferFreq,
		},
		"consistent frequencies": {
			tSlice: TimeSlice([]time.Time{
				time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
			}),
			expected: 24 * time.Hour,
		},
		"multiple frequencies": {
			tSlice: TimeSlice([]time.Time{
				time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 1, 0, 0, 0, time.UTC),
			}),
			expected: 24 * time.Hour,
		},
		"multiple frequencies with same counts": {
			tSlice: TimeSlice([]time.Time{
				time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 1, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 2, 0, 0, 0, time.UTC),
			}),
			expected: time.Hour,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			freq, err := td.tSlice.EstimateFreq()
			if td.err != nil {
				assert.EqualError(t, err, td.err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, freq)
		})
	}
}

func TestRegularity(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(hours ...int) TimeSlice {
		ts := make(TimeSlice, len(hours))
		for i, h := range hours {
			ts[i] = start.Add(time.Duration(h) * time.Hour)
		}
		return ts
	}

	testData := map[string]struct {
		tSlice   TimeSlice
		expected Regularity
		err      error
	}{
		"regular": {
			tSlice:   at(0, 1, 2, 3),
			expected: Regularity{Freq: time.Hour},
		},
		"gap of two points": {
			tSlice:   at(0, 1, 2, 5, 6),
			expected: Regularity{Freq: time.Hour, Irregular: 1, Missing: 2},
		},
		"duplicate and offset": {
			tSlice:   TimeSlice{start, start.Add(time.Hour), start.Add(time.Hour), start.Add(2 * time.Hour), start.Add(150 * time.Minute)},
			expected: Regularity{Freq: time.Hour, Irregular: 2},
		},
		"single point": {
			tSlice: at(0),
			err:    ErrCannotInferFreq,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := td.tSlice.Regularity()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}
