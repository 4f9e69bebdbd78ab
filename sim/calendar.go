package sim

import (
	"fmt"
	"sort"
	"time"
)

// CalendarDay is one simulated working date.
type CalendarDay struct {
	Date     time.Time
	ShortDay bool // short working hours (e.g. Fridays)
}

// Calendar answers business-day questions over the simulated date range.
// Only the dates listed are business days.
type Calendar struct {
	days []CalendarDay
}

// NewCalendar sorts and validates the days. Dates are truncated to midnight.
func NewCalendar(days []CalendarDay) (*Calendar, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("calendar is empty: %w", ErrInvalidArgument)
	}
	sorted := make([]CalendarDay, len(days))
	for i, d := range days {
		if d.Date.IsZero() {
			return nil, fmt.Errorf("calendar row %d: missing date: %w", i, ErrInvalidArgument)
		}
		sorted[i] = CalendarDay{Date: dateOf(d.Date), ShortDay: d.ShortDay}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Equal(sorted[i-1].Date) {
			return nil, fmt.Errorf("calendar date %s listed twice: %w", sorted[i].Date.Format(time.DateOnly), ErrInvalidArgument)
		}
	}
	return &Calendar{days: sorted}, nil
}

// dateOf truncates t to midnight in its own location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// atClock returns t's date at the given wall-clock hour and minute.
func atClock(t time.Time, hour, minute int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, t.Location())
}

// First returns the first calendar date.
func (c *Calendar) First() time.Time { return c.days[0].Date }

// Last returns the last calendar date.
func (c *Calendar) Last() time.Time { return c.days[len(c.days)-1].Date }

// Days returns the calendar rows in date order.
func (c *Calendar) Days() []CalendarDay { return c.days }

// IsShortDay reports whether t falls on a listed short day.
func (c *Calendar) IsShortDay(t time.Time) bool {
	d := dateOf(t)
	i := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Date.Before(d) })
	return i < len(c.days) && c.days[i].Date.Equal(d) && c.days[i].ShortDay
}

// NextDay returns the first calendar date strictly after t's date. Past the
// end of the calendar it falls back to t plus 24 hours.
func (c *Calendar) NextDay(t time.Time) time.Time {
	d := dateOf(t)
	i := sort.Search(len(c.days), func(i int) bool { return c.days[i].Date.After(d) })
	if i < len(c.days) {
		return c.days[i].Date
	}
	return t.Add(24 * time.Hour)
}

// BusinessDaysBetween counts calendar dates d with date(from) < d <= date(to).
func (c *Calendar) BusinessDaysBetween(from, to time.Time) int {
	lo := dateOf(from)
	hi := dateOf(to)
	if !hi.After(lo) {
		return 0
	}
	start := sort.Search(len(c.days), func(i int) bool { return c.days[i].Date.After(lo) })
	end := sort.Search(len(c.days), func(i int) bool { return c.days[i].Date.After(hi) })
	return end - start
}
