package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - Wall-clock calendar date (never an instant)
// =============================================================================

// DateLayout is the only date format accepted and produced by the engine.
const DateLayout = "2006-01-02"

// TimePoint is a calendar date. It is pinned to 12:00 UTC so that no
// conversion through a UTC-based calendar API can move it to the previous
// or next day. The zero value means "no date".
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 12, 0, 0, 0, time.UTC)}
}

// Today returns the current local calendar date.
func Today() TimePoint {
	now := time.Now()
	return NewTimePoint(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a YYYY-MM-DD string. Use it wherever bad input must be
// reported instead of silently replaced.
func ParseDate(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimePoint{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return NewTimePoint(t.Year(), t.Month(), t.Day()), nil
}

// ParseCalendarDate parses a YYYY-MM-DD string and falls back to Today() for
// empty or invalid input. Callers must not use it for validation.
func ParseCalendarDate(s string) TimePoint {
	tp, err := ParseDate(s)
	if err != nil {
		return Today()
	}
	return tp
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 12, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint  { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }
func (tp TimePoint) AddYears(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(n, 0, 0)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.normalize().Weekday() }
func (tp TimePoint) IsWeekend() bool       { wd := tp.Weekday(); return wd == time.Saturday || wd == time.Sunday }
func (tp TimePoint) IsWorkday() bool       { return !tp.IsWeekend() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.Time.Format(DateLayout)
}

// MarshalText renders the date as YYYY-MM-DD; the zero date renders empty.
func (tp TimePoint) MarshalText() ([]byte, error) {
	return []byte(tp.String()), nil
}

// UnmarshalText accepts YYYY-MM-DD or an empty string (zero date).
func (tp *TimePoint) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*tp = TimePoint{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// =============================================================================
// HOLIDAY CALENDAR - Explicit non-working dates
// =============================================================================

// HolidayCalendar reports dates that are not working days besides weekends.
type HolidayCalendar interface {
	IsHoliday(date TimePoint) bool
}

// HolidaySet is a HolidayCalendar backed by a set of YYYY-MM-DD strings.
// A nil set has no holidays.
type HolidaySet map[string]struct{}

func NewHolidaySet(dates ...string) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[strings.TrimSpace(d)] = struct{}{}
	}
	return set
}

func (s HolidaySet) IsHoliday(date TimePoint) bool {
	_, ok := s[date.String()]
	return ok
}

// IsWorkdayWithHolidays checks if a date is a working day, considering holidays.
func (tp TimePoint) IsWorkdayWithHolidays(calendar HolidayCalendar) bool {
	if tp.IsWeekend() {
		return false
	}
	if calendar != nil && calendar.IsHoliday(tp) {
		return false
	}
	return true
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween returns the number of calendar days from 'from' to 'to'.
func DaysBetween(from, to TimePoint) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

func StartOfYear(year int) TimePoint { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint   { return NewTimePoint(year, time.December, 31) }

// YearsOfService returns the completed years between hire and ref. A year
// completes on the exact month/day anniversary. Never negative.
func YearsOfService(hire, ref TimePoint) int {
	if hire.IsZero() || ref.IsZero() {
		return 0
	}
	years := ref.Year() - hire.Year()
	if ref.Month() < hire.Month() || (ref.Month() == hire.Month() && ref.Day() < hire.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// =============================================================================
// ISO STRING HELPERS - Boundary functions over YYYY-MM-DD strings
// =============================================================================

// EnumerateDates lists every date from startIso to endIso inclusive, in
// ascending order. Reversed or malformed ranges yield an empty slice.
func EnumerateDates(startIso, endIso string) []string {
	period, err := ParsePeriod(startIso, endIso)
	if err != nil {
		return []string{}
	}
	days := period.Days()
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}

// CountWorkingDays counts Monday-Friday dates in [startIso, endIso] that are
// not in holidays. Reversed or malformed ranges count 0.
func CountWorkingDays(startIso, endIso string, holidays HolidaySet) int {
	period, err := ParsePeriod(startIso, endIso)
	if err != nil {
		return 0
	}
	return period.WorkingDays(holidays)
}

// YearsOfServiceISO is YearsOfService over a YYYY-MM-DD hire date.
// A malformed hire date yields 0.
func YearsOfServiceISO(hireIso string, ref TimePoint) int {
	hire, err := ParseDate(hireIso)
	if err != nil {
		return 0
	}
	return YearsOfService(hire, ref)
}
