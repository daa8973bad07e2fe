package timedataset

import (
	"math"
	"time"
)

// TimeSlice is an ordered run of timestamps
type TimeSlice []time.Time

// StartTime is the first timestamp or the zero time when empty
func (t TimeSlice) StartTime() time.Time {
	if len(t) == 0 {
		return time.Time{}
	}
	return t[0]
}

// EndTime is the last timestamp or the zero time when empty
func (t TimeSlice) EndTime() time.Time {
	if len(t) == 0 {
		return time.Time{}
	}
	return t[len(t)-1]
}

// EstimateFreq returns the most common step between consecutive timestamps. Ties go to the
// smaller step.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	counts := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		counts[t[i].Sub(t[i-1])]++
	}

	var best int
	freq := time.Duration(math.MaxInt64)
	for step, cnt := range counts {
		if cnt > best || (cnt == best && step < freq) {
			best = cnt
			freq = step
		}
	}
	return freq, nil
}

// Regularity describes how evenly a series is sampled
type Regularity struct {
	Freq time.Duration
	// Irregular counts steps that differ from Freq, i.e. gaps or duplicated samples
	Irregular int
	// Missing estimates the points absent from gaps that are whole multiples of Freq
	Missing int
}

// Regularity estimates the sampling frequency and counts the steps that break it. Strategies index
// observations by position so an irregular series is still forecast, one step at a time.
func (t TimeSlice) Regularity() (Regularity, error) {
	freq, err := t.EstimateFreq()
	if err != nil {
		return Regularity{}, err
	}

	reg := Regularity{Freq: freq}
	for i := 1; i < len(t); i++ {
		step := t[i].Sub(t[i-1])
		if step == freq {
			continue
		}
		reg.Irregular++
		if freq > 0 && step > freq && step%freq == 0 {
			reg.Missing += int(step/freq) - 1
		}
	}
	return reg, nil
}
