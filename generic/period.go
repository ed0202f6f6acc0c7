package generic

import "fmt"

// =============================================================================
// PERIOD - Inclusive calendar range
// =============================================================================

// Period is an inclusive date range [Start, End]. Leave records, requests and
// report filters are all periods.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// ParsePeriod parses both ends strictly and rejects reversed ranges.
func ParsePeriod(startIso, endIso string) (Period, error) {
	start, err := ParseDate(startIso)
	if err != nil {
		return Period{}, err
	}
	end, err := ParseDate(endIso)
	if err != nil {
		return Period{}, err
	}
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// YearPeriod returns Jan 1 - Dec 31 of year.
func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// Validate returns ErrInvalidPeriod for missing ends and ErrInvalidDateRange
// when End is before Start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("%w: missing start or end", ErrInvalidPeriod)
	}
	if p.End.Before(p.Start) {
		return &DateRangeError{Start: p.Start, End: p.End}
	}
	return nil
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps reports whether p and other share at least one date.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && p.End.AfterOrEqual(other.Start)
}

// Days returns all days in the period as a slice of TimePoints.
// Invalid periods have no days.
func (p Period) Days() []TimePoint {
	if p.Validate() != nil {
		return nil
	}
	days := make([]TimePoint, 0, DaysBetween(p.Start, p.End)+1)
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Len is the inclusive number of calendar days, 0 for invalid periods.
func (p Period) Len() int {
	if p.Validate() != nil {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// WorkingDays counts the days that are neither weekend nor holiday.
func (p Period) WorkingDays(calendar HolidayCalendar) int {
	count := 0
	for _, d := range p.Days() {
		if d.IsWorkdayWithHolidays(calendar) {
			count++
		}
	}
	return count
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
