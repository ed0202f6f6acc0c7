// Package leave implements annual-leave accrual and reconciliation.
// It uses the generic foundation for dates, amounts and the event fold.
package leave

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// RECORD KINDS
// =============================================================================

// RecordKind is the closed set of leave-affecting events. The string values
// are the persisted wire values.
type RecordKind string

const (
	KindAnnual     RecordKind = "Anual"
	KindSpecial    RecordKind = "Especial"
	KindAdvance    RecordKind = "Adelantada"
	KindAgreed     RecordKind = "Acordado"
	KindUnpaid     RecordKind = "Sin Goce"
	KindException  RecordKind = "Excepcion"
	KindAdjustment RecordKind = "AjusteSaldo"
)

// AllKinds lists every RecordKind.
func AllKinds() []RecordKind {
	return []RecordKind{KindAnnual, KindSpecial, KindAdvance, KindAgreed, KindUnpaid, KindException, KindAdjustment}
}

func (k RecordKind) Valid() bool {
	switch k {
	case KindAnnual, KindSpecial, KindAdvance, KindAgreed, KindUnpaid, KindException, KindAdjustment:
		return true
	}
	return false
}

// Requestable reports whether employees may ask for this kind themselves.
func (k RecordKind) Requestable() bool {
	return k == KindAnnual || k == KindSpecial || k == KindUnpaid
}

func ParseRecordKind(s string) (RecordKind, error) {
	k := RecordKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown record kind %q", generic.ErrMalformedRecord, s)
	}
	return k, nil
}

// =============================================================================
// REQUEST STATUS
// =============================================================================

type RequestStatus string

const (
	StatusPending  RequestStatus = "Pendiente"
	StatusApproved RequestStatus = "Aprobado"
	StatusRejected RequestStatus = "Rechazado"
)

func (s RequestStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// =============================================================================
// EMPLOYMENT TYPE
// =============================================================================

// EmploymentType affects notifications only, never accrual.
type EmploymentType string

const (
	EmploymentHourly  EmploymentType = "Jornalero"
	EmploymentMonthly EmploymentType = "Mensual"
)

func (t EmploymentType) Valid() bool {
	return t == EmploymentHourly || t == EmploymentMonthly
}

// =============================================================================
// JUSTIFICATION - tri-state proof flag on special leave
// =============================================================================

type Justification int

const (
	JustificationNotApplicable Justification = iota // JSON null / absent
	JustificationPending                            // false: proof not yet accepted
	JustificationAccepted                           // true: HR certified the proof
)

func (j Justification) String() string {
	switch j {
	case JustificationPending:
		return "pending"
	case JustificationAccepted:
		return "accepted"
	}
	return "n/a"
}

// MarshalJSON maps to null/false/true.
func (j Justification) MarshalJSON() ([]byte, error) {
	switch j {
	case JustificationPending:
		return []byte("false"), nil
	case JustificationAccepted:
		return []byte("true"), nil
	}
	return []byte("null"), nil
}

func (j *Justification) UnmarshalJSON(b []byte) error {
	var v *bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*j = JustificationFromBool(v)
	return nil
}

// JustificationFromBool converts the nullable boolean used by storage.
func JustificationFromBool(v *bool) Justification {
	switch {
	case v == nil:
		return JustificationNotApplicable
	case *v:
		return JustificationAccepted
	default:
		return JustificationPending
	}
}

// Bool is the inverse of JustificationFromBool.
func (j Justification) Bool() *bool {
	var b bool
	switch j {
	case JustificationPending:
		b = false
	case JustificationAccepted:
		b = true
	default:
		return nil
	}
	return &b
}

// =============================================================================
// MODEL
// =============================================================================

// Employee is a snapshot handed to the calculator. The calculator never
// mutates it.
type Employee struct {
	ID       generic.EntityID
	Name     string
	LastName string
	HireDate generic.TimePoint
	Type     EmploymentType
	Active   bool
	Records  []LeaveRecord
	Requests []LeaveRequest
}

func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.Name
	}
	return e.LastName + ", " + e.Name
}

// Record returns the record with the given id.
func (e Employee) Record(id string) (LeaveRecord, bool) {
	for _, r := range e.Records {
		if r.ID == id {
			return r, true
		}
	}
	return LeaveRecord{}, false
}

// Request returns the request with the given id.
func (e Employee) Request(id string) (LeaveRequest, bool) {
	for _, r := range e.Requests {
		if r.ID == id {
			return r, true
		}
	}
	return LeaveRequest{}, false
}

// LeaveRecord is an already-resolved, append-only event. Only the
// Justification field ever changes after creation.
type LeaveRecord struct {
	ID            string
	Kind          RecordKind
	StartDate     generic.TimePoint
	EndDate       generic.TimePoint
	Days          decimal.Decimal
	Notes         string
	Year          int
	Justification Justification
	AgreedDayID   string // Exception records only
}

// EffectiveYear is Year, or the start date's year when Year is unset.
func (r LeaveRecord) EffectiveYear() int {
	if r.Year != 0 {
		return r.Year
	}
	if r.StartDate.IsZero() {
		return 0
	}
	return r.StartDate.Year()
}

func (r LeaveRecord) Period() generic.Period {
	return generic.Period{Start: r.StartDate, End: r.EndDate}
}

// LeaveRequest is an employee's ask, resolved into a LeaveRecord on approval.
type LeaveRequest struct {
	ID           string
	StartDate    generic.TimePoint
	EndDate      generic.TimePoint
	Days         int
	Reason       string
	Type         RecordKind
	Status       RequestStatus
	AdminComment string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

func (r LeaveRequest) Period() generic.Period {
	return generic.Period{Start: r.StartDate, End: r.EndDate}
}

// AgreedDay is a company-wide day off. Only active days are deducted.
type AgreedDay struct {
	ID          string
	Date        generic.TimePoint
	Description string
	Active      bool
}
