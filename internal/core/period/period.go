package period

import (
	"fmt"
	"time"
)

// YearMonth identifies a calendar month. It is the accrual idempotency key.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func New(year int, month time.Month) (YearMonth, error) {
	if month < time.January || month > time.December {
		return YearMonth{}, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	if year < 1 {
		return YearMonth{}, fmt.Errorf("invalid year %d", year)
	}
	return YearMonth{Year: year, Month: month}, nil
}

func Of(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Parse accepts the "2006-01" form.
func Parse(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year-month %q: %w", s, err)
	}
	return Of(t), nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Label renders the period as "January 2006".
func (ym YearMonth) Label() string {
	return ym.Start().Format("January 2006")
}

func (ym YearMonth) Start() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (ym YearMonth) End() time.Time {
	return ym.Start().AddDate(0, 1, -1)
}

func (ym YearMonth) Days() int {
	return ym.End().Day()
}

func (ym YearMonth) Previous() YearMonth {
	return Of(ym.Start().AddDate(0, -1, 0))
}

func (ym YearMonth) Next() YearMonth {
	return Of(ym.Start().AddDate(0, 1, 0))
}

func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// Contains reports whether the calendar date of t falls inside the month.
func (ym YearMonth) Contains(t time.Time) bool {
	return t.Year() == ym.Year && t.Month() == ym.Month
}

// EpochDay is the number of whole days since 1970-01-01 for the calendar date of t.
func EpochDay(t time.Time) int64 {
	y, m, d := t.Date()
	u := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return u.Unix() / 86400
}

// DaysInclusive counts calendar days from start to end, both included.
func DaysInclusive(start, end time.Time) int64 {
	return EpochDay(end) - EpochDay(start) + 1
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Overlaps reports whether [aStart, aEnd] and [bStart, bEnd] share at least one day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return EpochDay(aStart) <= EpochDay(bEnd) && EpochDay(bStart) <= EpochDay(aEnd)
}
