// Package event resolves calendar holidays into time windows. Request-rate series dip on public
// holidays so the synthetic series generator uses these windows to shape its traffic.
package event

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var (
	ErrStartAfterEnd = errors.New("event start time is after end time")
	ErrUnsetTime     = errors.New("unset event start or end time")
	ErrNoEventName   = errors.New("no event name")
)

// TrafficHolidays are the US holidays with a noticeable effect on request volume
var TrafficHolidays = []*cal.Holiday{
	us.NewYear,
	us.MemorialDay,
	us.IndependenceDay,
	us.LaborDay,
	us.ThanksgivingDay,
	us.ChristmasDay,
}

// Event is a named time span [Start, End)
type Event struct {
	Name  string
	Start time.Time
	End   time.Time
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

// Contains reports whether t falls inside the event window
func (e Event) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// Holiday returns one event per observed occurrence of the holiday between start and end, widened
// by durBefore and durAfter. Events are expressed in the location of start.
func Holiday(hol *cal.Holiday, start, end time.Time, durBefore, durAfter time.Duration) []Event {
	startLoc := start.Location()

	events := []Event{}
	for i := start.Year(); i <= end.Year(); i++ {
		_, observed := hol.Calc(i)
		_, offset := observed.Zone()
		_, startOffset := start.Zone()

		observed = observed.Add(time.Duration(offset) * time.Second).In(startLoc).Add(time.Duration(-startOffset) * time.Second)

		if (observed.After(start) || observed.Equal(start)) && (observed.Before(end) || observed.Equal(end)) {
			events = append(events, Event{
				Name:  strings.ReplaceAll(fmt.Sprintf("%s_%d", hol.Name, i), " ", "_"),
				Start: observed.Add(-durBefore),
				End:   observed.Add(24 * time.Hour).Add(durAfter),
			})
		}
	}
	return events
}

// Holidays resolves every holiday in hols between start and end ordered by start time
func Holidays(hols []*cal.Holiday, start, end time.Time) []Event {
	var events []Event
	for _, hol := range hols {
		events = append(events, Holiday(hol, start, end, 0, 0)...)
	}
	slices.SortFunc(events, func(a, b Event) int {
		return a.Start.Compare(b.Start)
	})
	return events
}
