package timedataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/aouyang1/go-ensemble/event"
	"gonum.org/v1/gonum/floats"
)

var ErrInvalidSimulation = errors.New("invalid simulation options")

// GenerateT returns n points spaced by interval ending one interval before the minute-truncated
// time reported by nowFunc.
func GenerateT(n int, interval time.Duration, nowFunc func() time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := time.Unix(nowFunc().Unix()/60*60, 0).Add(-time.Duration(n) * interval).UTC()
	for i := 0; i < n; i++ {
		t = append(t, ct.Add(interval*time.Duration(i)))
	}
	return t
}

// Series is a synthetic component that can be composed in place
type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// Scale multiplies every point falling in one of the events by factor
func (s Series) Scale(t []time.Time, events []event.Event, factor float64) Series {
	for i := range s {
		for _, e := range events {
			if e.Contains(t[i]) {
				s[i] *= factor
				break
			}
		}
	}
	return s
}

// ClipBelow raises every point under floor to floor
func (s Series) ClipBelow(floor float64) Series {
	for i := range s {
		if s[i] < floor {
			s[i] = floor
		}
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, n)
	for i := range y {
		y[i] = val
	}
	return Series(y)
}

func GenerateWaveY(t []time.Time, amp, periodSec, order, timeOffset float64) Series {
	y := make([]float64, len(t))
	for i := range t {
		y[i] = amp * math.Sin(2.0*math.Pi*order/periodSec*(float64(t[i].Unix())+timeOffset))
	}
	return Series(y)
}

// GenerateTrend returns a line growing by slope per hour from the first time point
func GenerateTrend(t []time.Time, slope float64) Series {
	y := make([]float64, len(t))
	if len(t) == 0 {
		return Series(y)
	}
	for i := range t {
		y[i] = slope * t[i].Sub(t[0]).Hours()
	}
	return Series(y)
}

// GenerateNoise draws gaussian noise with standard deviation scale from rng
func GenerateNoise(rng *rand.Rand, n int, scale float64) Series {
	y := make([]float64, n)
	for i := range y {
		y[i] = rng.NormFloat64() * scale
	}
	return Series(y)
}

// RequestRateOptions shapes a synthetic request-rate series
type RequestRateOptions struct {
	Points      int
	Interval    time.Duration
	End         time.Time
	Base        float64
	DailyAmp    float64
	WeeklyAmp   float64
	TrendPerDay float64
	NoiseScale  float64
	// HolidayFactor multiplies traffic during US holidays. Zero or one disables it.
	HolidayFactor float64
	Seed          uint64
}

func NewDefaultRequestRateOptions() *RequestRateOptions {
	return &RequestRateOptions{
		Points:        24 * 7 * 8,
		Interval:      time.Hour,
		End:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Base:          1000,
		DailyAmp:      300,
		WeeklyAmp:     100,
		TrendPerDay:   1,
		NoiseScale:    25,
		HolidayFactor: 0.6,
		Seed:          1,
	}
}

func (o *RequestRateOptions) Validate() error {
	if o.Points < 1 {
		return fmt.Errorf("points must be positive, got %d, %w", o.Points, ErrInvalidSimulation)
	}
	if o.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s, %w", o.Interval, ErrInvalidSimulation)
	}
	if o.NoiseScale < 0 {
		return fmt.Errorf("noise scale must not be negative, %w", ErrInvalidSimulation)
	}
	return nil
}

// SimulateRequestRate composes a daily and weekly seasonal request rate with trend, noise and
// holiday dips. The output is reproducible for a given seed and never negative.
func SimulateRequestRate(opt *RequestRateOptions) (*TimeDataset, error) {
	if opt == nil {
		opt = NewDefaultRequestRateOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}

	end := opt.End
	if end.IsZero() {
		end = time.Now()
	}
	t := GenerateT(opt.Points, opt.Interval, func() time.Time { return end })

	day := (24 * time.Hour).Seconds()
	y := GenerateConstY(opt.Points, opt.Base).
		Add(GenerateWaveY(t, opt.DailyAmp, day, 1, 0)).
		Add(GenerateWaveY(t, opt.WeeklyAmp, 7*day, 1, 0)).
		Add(GenerateTrend(t, opt.TrendPerDay/24.0)).
		Add(GenerateNoise(rand.New(rand.NewPCG(opt.Seed, 0)), opt.Points, opt.NoiseScale))

	if opt.HolidayFactor > 0 && opt.HolidayFactor != 1 {
		holidays := event.Holidays(event.TrafficHolidays, t[0].AddDate(0, 0, -1), TimeSlice(t).EndTime())
		y.Scale(t, holidays, opt.HolidayFactor)
	}
	y.ClipBelow(0)

	return NewUnivariateDataset(t, y)
}
