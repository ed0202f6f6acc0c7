package leave

import (
	"sort"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// RECORD EFFECTS
// =============================================================================

// Effect is what a record does to the balance.
type Effect int

const (
	EffectUnknown            Effect = iota // contributes nothing
	EffectDeductsWorkdays                  // each working day not covered by an agreed day is taken
	EffectNone                             // shown, never deducted (certified special leave)
	EffectMirrorsAgreedDay                 // legacy copy of a company-wide day
	EffectCancelsAgreedDay                 // exception: removes one agreed day for this employee
	EffectAdjustsEntitlement               // manual +/- to the generated total
)

// Effect classifies the record. Every RecordKind has an explicit case.
func (r LeaveRecord) Effect() Effect {
	switch r.Kind {
	case KindAnnual, KindAdvance, KindUnpaid:
		return EffectDeductsWorkdays
	case KindSpecial:
		if r.Justification == JustificationAccepted {
			return EffectNone
		}
		return EffectDeductsWorkdays
	case KindAgreed:
		return EffectMirrorsAgreedDay
	case KindException:
		return EffectCancelsAgreedDay
	case KindAdjustment:
		return EffectAdjustsEntitlement
	}
	return EffectUnknown
}

// =============================================================================
// AGREED CALENDAR - effective agreed days for one employee
// =============================================================================

// agreedCalendar holds the agreed days that apply to one employee: active,
// dated, and not cancelled by one of the employee's exceptions. The summary
// and the history both read it, so they never disagree on which days count.
type agreedCalendar struct {
	days  []AgreedDay
	dates map[string]struct{}
}

var _ generic.HolidayCalendar = agreedCalendar{}

func newAgreedCalendar(records []LeaveRecord, agreed []AgreedDay) agreedCalendar {
	excepted := exceptionSet(records)

	cal := agreedCalendar{dates: make(map[string]struct{})}
	for _, d := range agreed {
		if !d.Active || d.Date.IsZero() {
			continue
		}
		if _, ok := excepted[d.ID]; ok {
			continue
		}
		key := d.Date.String()
		if _, ok := excepted[key]; ok {
			continue
		}
		if _, dup := cal.dates[key]; dup {
			continue
		}
		cal.dates[key] = struct{}{}
		cal.days = append(cal.days, d)
	}
	sort.SliceStable(cal.days, func(i, j int) bool { return cal.days[i].Date.Before(cal.days[j].Date) })
	return cal
}

// exceptionSet collects agreed-day ids referenced by exceptions, or the raw
// start date for exceptions stored before ids existed.
func exceptionSet(records []LeaveRecord) map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range records {
		if r.Effect() != EffectCancelsAgreedDay {
			continue
		}
		switch {
		case r.AgreedDayID != "":
			set[r.AgreedDayID] = struct{}{}
		case !r.StartDate.IsZero():
			set[r.StartDate.String()] = struct{}{}
		}
	}
	return set
}

func (c agreedCalendar) IsHoliday(date generic.TimePoint) bool {
	_, ok := c.dates[date.String()]
	return ok
}

// inYear returns the effective agreed days dated in year.
func (c agreedCalendar) inYear(year int) []AgreedDay {
	out := make([]AgreedDay, 0, len(c.days))
	for _, d := range c.days {
		if d.Date.Year() == year {
			out = append(out, d)
		}
	}
	return out
}

// yearCalendar narrows an agreedCalendar to the agreed days of one year.
type yearCalendar struct {
	agreedCalendar
	year int
}

func (c yearCalendar) IsHoliday(date generic.TimePoint) bool {
	return date.Year() == c.year && c.agreedCalendar.IsHoliday(date)
}

// personalDays counts the record's working days not already covered by an
// effective agreed day of the record's year. Agreed days of other years are
// fixed deductions of those years and do not offset this record.
// Malformed or reversed ranges count zero.
func (c agreedCalendar) personalDays(r LeaveRecord) int {
	return r.Period().WorkingDays(yearCalendar{agreedCalendar: c, year: r.EffectiveYear()})
}

// EffectiveAgreedDays returns the agreed days that apply to emp in year.
func EffectiveAgreedDays(emp Employee, year int, agreed []AgreedDay) []AgreedDay {
	return newAgreedCalendar(emp.Records, agreed).inYear(year)
}
