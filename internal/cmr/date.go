package cmr

import (
	"fmt"
	"time"
)

// Date is a calendar day. It is comparable and safe to use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("cmr: parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is earlier than e.
func (d Date) Before(e Date) bool {
	return d.Time().Before(e.Time())
}

// After reports whether d is later than e.
func (d Date) After(e Date) bool {
	return d.Time().After(e.Time())
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthDates returns every calendar day of the given month in order.
func MonthDates(year int, month time.Month) []Date {
	n := DaysInMonth(year, month)
	dates := make([]Date, n)
	for i := range dates {
		dates[i] = Date{Year: year, Month: month, Day: i + 1}
	}
	return dates
}
