package utils

import (
	"fmt"
	"time"
)

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

// DateOf returns the UTC calendar date of t.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DaysBetween counts calendar days from start to end, ignoring the time of day.
// It is negative when end falls on an earlier date.
func DaysBetween(start, end time.Time) int {
	return int(DateOf(end).Time().Sub(DateOf(start).Time()).Hours() / 24)
}

// DaysLate reports how many calendar days asOf is past requiredBy, never less than zero.
func DaysLate(requiredBy, asOf time.Time) int {
	return max(DaysBetween(requiredBy, asOf), 0)
}
