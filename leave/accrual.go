/*
accrual.go - Annual entitlement and seniority bonus

PURPOSE:
  Computes how many leave days an employee has earned for a target year.

KEY CONCEPTS:
  Generation year:
    Days usable in year N are earned by service in year N-1. An employee
    hired during N-1 gets a prorated share, rounded up in their favor.
    An employee hired after N-1 ended has earned nothing for N.

  Seniority:
    A step function of completed years of service, measured on exact
    month/day anniversaries at the calculator's reference date.

    years:  0-4  5-8  9-12  13-16 ...
    bonus:   0    1    2     3

  Adjustments:
    BalanceAdjustment records for the target year are added to the total.
    They are the only way to carry legacy balances into the system.

EXAMPLE:
  calc := leave.Calculator{Policy: leave.DefaultAccrualPolicy(), AsOf: today}
  base := calc.Policy.BaseEntitlementDays(hire, 2025)   // 11 for a 2024-07-01 hire
  total := calc.TotalGeneratedDays(emp, 2025)

SEE ALSO:
  - balance.go: Summary built on top of these numbers
  - factory/policy.go: Loading an AccrualPolicy from JSON
*/
package leave

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// ACCRUAL POLICY
// =============================================================================

// AccrualPolicy holds the tunable numbers of the accrual rules.
type AccrualPolicy struct {
	BaseDays            int `json:"base_days"`
	DaysInYear          int `json:"days_in_year"`
	SeniorityStartYears int `json:"seniority_start_years"`
	SeniorityStepYears  int `json:"seniority_step_years"`
}

// DefaultAccrualPolicy is 20 base days, prorated over 365, with a seniority
// day at 5 years and another every 4 years after.
func DefaultAccrualPolicy() AccrualPolicy {
	return AccrualPolicy{
		BaseDays:            20,
		DaysInYear:          365,
		SeniorityStartYears: 5,
		SeniorityStepYears:  4,
	}
}

func (p AccrualPolicy) Validate() error {
	if p.BaseDays < 0 {
		return fmt.Errorf("base_days must be >= 0, got %d", p.BaseDays)
	}
	if p.DaysInYear <= 0 {
		return fmt.Errorf("days_in_year must be > 0, got %d", p.DaysInYear)
	}
	if p.SeniorityStartYears < 0 {
		return fmt.Errorf("seniority_start_years must be >= 0, got %d", p.SeniorityStartYears)
	}
	if p.SeniorityStepYears <= 0 {
		return fmt.Errorf("seniority_step_years must be > 0, got %d", p.SeniorityStepYears)
	}
	return nil
}

// SeniorityBonusDays returns the bonus for a given number of completed years.
func (p AccrualPolicy) SeniorityBonusDays(years int) int {
	if years < p.SeniorityStartYears {
		return 0
	}
	return 1 + (years-p.SeniorityStartYears)/p.SeniorityStepYears
}

// BaseEntitlementDays returns the base days usable in targetYear.
// A zero hire date earns nothing.
func (p AccrualPolicy) BaseEntitlementDays(hire generic.TimePoint, targetYear int) decimal.Decimal {
	if hire.IsZero() {
		return decimal.Zero
	}
	generationYear := targetYear - 1
	full := decimal.NewFromInt(int64(p.BaseDays))

	switch {
	case hire.Year() > generationYear:
		return decimal.Zero
	case hire.Year() < generationYear:
		return full
	}

	// Hired during the generation year: prorate, hire date through Dec 31 inclusive.
	worked := generic.DaysBetween(hire, generic.EndOfYear(generationYear)) + 1
	// A leap generation year can round past BaseDays (366 days gives 21).
	return decimal.NewFromInt(int64(worked)).
		Mul(full).
		Div(decimal.NewFromInt(int64(p.DaysInYear))).
		Ceil()
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator derives balances and history from an employee snapshot.
// AsOf is the reference date for years of service; the zero value means
// today. A Calculator holds no state and is safe for concurrent use.
type Calculator struct {
	Policy AccrualPolicy
	AsOf   generic.TimePoint
}

// NewCalculator returns a calculator with the default policy, measuring
// seniority as of today.
func NewCalculator() Calculator {
	return Calculator{Policy: DefaultAccrualPolicy()}
}

func (c Calculator) referenceDate() generic.TimePoint {
	if c.AsOf.IsZero() {
		return generic.Today()
	}
	return c.AsOf
}

func (c Calculator) YearsOfService(hire generic.TimePoint) int {
	return generic.YearsOfService(hire, c.referenceDate())
}

func (c Calculator) SeniorityBonusDays(hire generic.TimePoint) int {
	if hire.IsZero() {
		return 0
	}
	return c.Policy.SeniorityBonusDays(c.YearsOfService(hire))
}

// TotalGeneratedDays is base + seniority + adjustments for year, rounded up
// to two decimals.
func (c Calculator) TotalGeneratedDays(emp Employee, year int) decimal.Decimal {
	adjustments := generic.SumDecimal(
		generic.Filter(emp.Records, func(r LeaveRecord) bool {
			return r.Effect() == EffectAdjustsEntitlement && r.EffectiveYear() == year
		}),
		func(r LeaveRecord) decimal.Decimal { return r.Days },
	)
	return c.generated(emp.HireDate, year, adjustments)
}

func (c Calculator) generated(hire generic.TimePoint, year int, adjustments decimal.Decimal) decimal.Decimal {
	base := c.Policy.BaseEntitlementDays(hire, year)
	seniority := decimal.NewFromInt(int64(c.SeniorityBonusDays(hire)))
	return generic.CeilTo2(base.Add(seniority).Add(adjustments))
}
