// Package stay implements the date arithmetic for hotel-style stays:
// check-in/check-out normalization, night counting, and calendar-month
// overlap over the half-open interval [checkIn, checkOut).
package stay

import (
	"fmt"
	"time"
)

const (
	// CheckInHour is the local hour every stored check-in is moved to.
	CheckInHour = 15
	// CheckOutHour is the local hour every stored check-out is moved to.
	CheckOutHour = 11
)

// NormalizeCheckIn keeps the calendar date of t in loc and sets the time to 15:00.
func NormalizeCheckIn(t time.Time, loc *time.Location) time.Time {
	return atHour(t, loc, CheckInHour)
}

// NormalizeCheckOut keeps the calendar date of t in loc and sets the time to 11:00.
func NormalizeCheckOut(t time.Time, loc *time.Location) time.Time {
	return atHour(t, loc, CheckOutHour)
}

func atHour(t time.Time, loc *time.Location, hour int) time.Time {
	if t.IsZero() {
		return t
	}
	if loc == nil {
		loc = t.Location()
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, hour, 0, 0, 0, loc)
}

// dateOf drops the clock and zone, keeping the wall-clock calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from a to b, ignoring the time of day.
func DaysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)).Hours() / 24)
}

// Nights is the number of whole nights in a stay. Unset or inverted stays
// have zero nights.
func Nights(checkIn, checkOut time.Time) int {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0
	}
	n := DaysBetween(checkIn, checkOut)
	if n < 0 {
		return 0
	}
	return n
}

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing the wall-clock date of t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM key.
func ParseMonth(key string) (Month, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return Month{}, fmt.Errorf("yearMonth must be in YYYY-MM format: %q", key)
	}
	return MonthOf(t), nil
}

// Key renders the month as YYYY-MM.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start is the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the month.
func (m Month) End() time.Time {
	return m.Next().Start().AddDate(0, 0, -1)
}

// Next is the following month.
func (m Month) Next() Month {
	return MonthOf(m.Start().AddDate(0, 1, 0))
}

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// MonthsTouched lists every month from the one containing checkIn through
// the one containing checkOut minus one day, inclusive.
func MonthsTouched(checkIn, checkOut time.Time) []Month {
	if checkIn.IsZero() || checkOut.IsZero() {
		return nil
	}
	first := MonthOf(checkIn)
	last := MonthOf(dateOf(checkOut).AddDate(0, 0, -1))

	var months []Month
	for cur := first; !last.Before(cur); cur = cur.Next() {
		months = append(months, cur)
	}
	return months
}

// NightsInMonth is the overlap in days between [checkIn, checkOut) and
// [monthStart, monthEnd+1day), floored at zero.
func NightsInMonth(checkIn, checkOut time.Time, m Month) int {
	start := dateOf(checkIn)
	if ms := m.Start(); ms.After(start) {
		start = ms
	}
	end := dateOf(checkOut)
	if me := m.Next().Start(); me.Before(end) {
		end = me
	}
	n := DaysBetween(start, end)
	if n < 0 {
		return 0
	}
	return n
}

// CleaningMonth is the month that carries the cleaning fee: the month of the
// last occupied night when checkout falls on the 1st, otherwise the checkout month.
func CleaningMonth(checkOut time.Time) Month {
	if checkOut.Day() == 1 {
		return MonthOf(dateOf(checkOut).AddDate(0, 0, -1))
	}
	return MonthOf(checkOut)
}

// DateKey renders the calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
