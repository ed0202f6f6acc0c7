package leave

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// UNIFIED HISTORY
// =============================================================================

// EntrySource tells where a history entry came from.
type EntrySource string

const (
	SourceAgreedDay EntrySource = "agreed_day"
	SourceRecord    EntrySource = "record"
	SourceRequest   EntrySource = "request"
)

// HistoryEntry is one line of the employee's leave ledger.
type HistoryEntry struct {
	ID            string
	Kind          RecordKind
	Source        EntrySource
	StartDate     generic.TimePoint
	EndDate       generic.TimePoint
	Days          decimal.Decimal
	Notes         string
	Status        RequestStatus
	AdminComment  string
	Year          int
	Justification Justification

	// Deducts marks entries counted in the summary's fixed or taken days.
	Deducts bool
}

// Label is the display label for the entry.
func (e HistoryEntry) Label() string { return Label(e.Kind, e.Notes) }

// History merges effective agreed days, adjustments, personal records and
// unresolved requests into one list, most recent first.
func (c Calculator) History(emp Employee, agreed []AgreedDay) []HistoryEntry {
	cal := newAgreedCalendar(emp.Records, agreed)
	out := make([]HistoryEntry, 0, len(cal.days)+len(emp.Records)+len(emp.Requests))

	for _, d := range cal.days {
		out = append(out, HistoryEntry{
			ID:        d.ID,
			Kind:      KindAgreed,
			Source:    SourceAgreedDay,
			StartDate: d.Date,
			EndDate:   d.Date,
			Days:      decimal.NewFromInt(1),
			Notes:     d.Description,
			Status:    StatusApproved,
			Year:      d.Date.Year(),
			Deducts:   true,
		})
	}

	for _, r := range emp.Records {
		entry := HistoryEntry{
			ID:            r.ID,
			Kind:          r.Kind,
			Source:        SourceRecord,
			StartDate:     r.StartDate,
			EndDate:       r.EndDate,
			Notes:         r.Notes,
			Status:        StatusApproved,
			Year:          r.EffectiveYear(),
			Justification: r.Justification,
		}
		switch effect := r.Effect(); effect {
		case EffectAdjustsEntitlement:
			entry.Days = r.Days
		case EffectDeductsWorkdays, EffectNone:
			n := cal.personalDays(r)
			if n == 0 {
				continue
			}
			entry.Days = decimal.NewFromInt(int64(n))
			entry.Deducts = effect == EffectDeductsWorkdays
		case EffectMirrorsAgreedDay, EffectCancelsAgreedDay, EffectUnknown:
			continue
		}
		out = append(out, entry)
	}

	for _, req := range emp.Requests {
		if req.Status == StatusApproved {
			continue
		}
		out = append(out, HistoryEntry{
			ID:           req.ID,
			Kind:         req.Type,
			Source:       SourceRequest,
			StartDate:    req.StartDate,
			EndDate:      req.EndDate,
			Days:         decimal.NewFromInt(int64(req.Days)),
			Notes:        req.Reason,
			Status:       req.Status,
			AdminComment: req.AdminComment,
			Year:         req.StartDate.Year(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out
}

// Reconcile sums the deducting entries of year. For any employee it equals
// Summary.TakenDays + Summary.FixedDeductions.
func Reconcile(history []HistoryEntry, year int) decimal.Decimal {
	return generic.SumDecimal(
		generic.Filter(history, func(e HistoryEntry) bool { return e.Deducts && e.Year == year }),
		func(e HistoryEntry) decimal.Decimal { return e.Days },
	)
}

// FilterHistory keeps entries starting within [from, to]. A zero bound is open.
func FilterHistory(entries []HistoryEntry, from, to generic.TimePoint) []HistoryEntry {
	return generic.Filter(entries, func(e HistoryEntry) bool {
		if !from.IsZero() && e.StartDate.Before(from) {
			return false
		}
		if !to.IsZero() && e.StartDate.After(to) {
			return false
		}
		return true
	})
}
