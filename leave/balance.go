/*
balance.go - Balance summary as a projection of the record log

PURPOSE:
  Answers "how many days does this employee have left in year N?"
  The answer is never stored. It is folded from the record log and the
  current agreed-day calendar every time, so it cannot drift from history.

ALGORITHM:
  1. availablePool  = base + seniority + adjustments (ceil to 2 decimals)
  2. effective agreed days = active, in year, not excepted by this employee
  3. fixedDeductions = number of effective agreed days
  4. takenDays = working days of deducting records in year that are not
     effective agreed days (a day is never charged twice)
  5. remaining = round2(pool - fixed - taken), may be negative

  Certified special leave (Justification == Accepted) stops deducting as
  soon as it is certified; the record's stored day count is untouched.

SEE ALSO:
  - accrual.go: Generated days
  - agreed.go: Effect classification and agreed calendar
  - history.go: Display ledger that reconciles with this summary
*/
package leave

import (
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
)

// Summary is the derived balance for one employee and year.
type Summary struct {
	Year            int
	BaseDays        decimal.Decimal
	SeniorityDays   int
	Adjustments     decimal.Decimal
	TotalGenerated  decimal.Decimal
	AvailablePool   decimal.Decimal
	FixedDeductions int
	TakenDays       int
	RemainingDays   decimal.Decimal
	YearsOfService  int
	AgreedDays      []AgreedDay
}

// Overdrawn reports a negative remaining balance.
func (s Summary) Overdrawn() bool { return s.RemainingDays.IsNegative() }

// tally is the fold state over the record log.
type tally struct {
	adjustments decimal.Decimal
	taken       int
}

func (t tally) apply(r LeaveRecord, year int, cal agreedCalendar) tally {
	if r.EffectiveYear() != year {
		return t
	}
	switch r.Effect() {
	case EffectAdjustsEntitlement:
		t.adjustments = t.adjustments.Add(r.Days)
	case EffectDeductsWorkdays:
		t.taken += cal.personalDays(r)
	case EffectNone, EffectMirrorsAgreedDay, EffectCancelsAgreedDay, EffectUnknown:
	}
	return t
}

// Summarize computes the balance of emp for year against the company-wide
// agreed days. It is pure: same input, same output.
func (c Calculator) Summarize(emp Employee, year int, agreed []AgreedDay) Summary {
	cal := newAgreedCalendar(emp.Records, agreed)
	fixed := cal.inYear(year)

	t := generic.Fold(emp.Records, tally{adjustments: decimal.Zero}, func(t tally, r LeaveRecord) tally {
		return t.apply(r, year, cal)
	})

	pool := c.generated(emp.HireDate, year, t.adjustments)
	remaining := pool.
		Sub(decimal.NewFromInt(int64(len(fixed)))).
		Sub(decimal.NewFromInt(int64(t.taken)))

	return Summary{
		Year:            year,
		BaseDays:        c.Policy.BaseEntitlementDays(emp.HireDate, year),
		SeniorityDays:   c.SeniorityBonusDays(emp.HireDate),
		Adjustments:     t.adjustments,
		TotalGenerated:  pool,
		AvailablePool:   pool,
		FixedDeductions: len(fixed),
		TakenDays:       t.taken,
		RemainingDays:   generic.Round2(remaining),
		YearsOfService:  c.YearsOfService(emp.HireDate),
		AgreedDays:      fixed,
	}
}
