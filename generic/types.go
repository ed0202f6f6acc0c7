/*
Package generic provides the domain-agnostic foundation of the leave engine.

PURPOSE:
  Holds the types every leave calculation is built from: calendar dates that
  never shift across time zones, exact day quantities, inclusive date ranges,
  and the fold used to project an append-only event log into a derived state.
  Nothing in here knows what an "agreed day" or a "special leave" is.

KEY CONCEPTS IN THIS FILE (types.go):
  - Day quantities: decimal.Decimal, never float64
  - EntityID: Type-safe employee identifier
  - Rounding helpers used at the reporting boundaries

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Rounding happens only at boundaries (proration, final summary)
  3. Type Safety: Strong typing for IDs and enumerations

SEE ALSO:
  - time.go: Calendar date (TimePoint) and working-day helpers
  - period.go: Inclusive date ranges
  - projection.go: Fold over an event log
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DAY QUANTITIES
// =============================================================================

// MustParseDecimal parses s, returning zero for malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// ROUNDING - Applied only at reporting boundaries
// =============================================================================

var hundred = decimal.NewFromInt(100)

// Round2 rounds d to two decimal places (half away from zero).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CeilTo2 rounds d up to the next multiple of 0.01.
func CeilTo2(d decimal.Decimal) decimal.Decimal {
	return d.Mul(hundred).Ceil().Div(hundred)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// EntityID identifies an employee (national ID string in practice).
type EntityID string

func (id EntityID) String() string { return string(id) }
