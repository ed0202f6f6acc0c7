/*
projection.go - Derived state from an append-only log

PURPOSE:
  Balances are never stored. They are recomputed by folding the employee's
  record log (plus the agreed-day calendar) into a summary every time they
  are read. Fold is the single place that reduction happens so every
  projection (summary, history, report) walks records the same way.

KEY INSIGHT:
  A projection is a pure function of its inputs. The same log always folds
  to the same state, so summary and history can be checked against each
  other (see leave.Reconcile).

EXAMPLE:
  total := generic.Fold(records, decimal.Zero, func(acc decimal.Decimal, r Record) decimal.Decimal {
      return acc.Add(r.Days)
  })

SEE ALSO:
  - leave/balance.go: Summary projection
  - leave/history.go: History projection
*/
package generic

import "github.com/shopspring/decimal"

// =============================================================================
// FOLD
// =============================================================================

// Fold reduces events left to right into a state.
func Fold[E, S any](events []E, initial S, step func(S, E) S) S {
	state := initial
	for _, e := range events {
		state = step(state, e)
	}
	return state
}

// Filter returns the events for which keep returns true, preserving order.
func Filter[E any](events []E, keep func(E) bool) []E {
	out := make([]E, 0, len(events))
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// SumDecimal folds events into the sum of value(e).
func SumDecimal[E any](events []E, value func(E) decimal.Decimal) decimal.Decimal {
	return Fold(events, decimal.Zero, func(acc decimal.Decimal, e E) decimal.Decimal {
		return acc.Add(value(e))
	})
}
