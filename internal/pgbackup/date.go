package pgbackup

import (
	"fmt"
	"time"
)

// DateLayout is the on-disk date encoding. Zero padding makes lexicographic
// order equal chronological order.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// PeriodKey identifies the ISO week or calendar month a date falls in.
type PeriodKey struct {
	Year   int
	Period int
}

// WeekKey returns the ISO (year, week) of d.
func (d Date) WeekKey() PeriodKey {
	y, w := d.Time().ISOWeek()
	return PeriodKey{Year: y, Period: w}
}

// MonthKey returns the (year, month) of d.
func (d Date) MonthKey() PeriodKey {
	return PeriodKey{Year: d.Year, Period: int(d.Month)}
}
