/*
service.go - Leave workflow over a Store

PURPOSE:
  Drives every state transition that produces input for the calculator:
  request submission and review, direct HR entries, certification of
  special leave, manual adjustments, agreed-day exceptions and the
  company-wide agreed-day calendar.

REQUEST FLOW:
  ┌───────────────────────────────────────────────────────────────┐
  │                                                               │
  │  Employee submits ──▶ Pendiente ──approve──▶ Aprobado         │
  │                           │                     │             │
  │                           │                     ▼             │
  │                           │              LeaveRecord app-<id> │
  │                           │                                   │
  │                           └──reject (comment)──▶ Rechazado    │
  │                                                               │
  └───────────────────────────────────────────────────────────────┘

  Approval marks the request and appends its record in one transaction,
  so a request is never Aprobado without its record.

BALANCES:
  Balance and History load a snapshot and delegate to the Calculator.
  Nothing here stores a balance.

SEE ALSO:
  - balance.go, history.go: Projections
  - store.go: Persistence contract
  - api/handlers.go: HTTP surface
*/
package leave

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
)

// Service orchestrates the leave workflow.
type Service struct {
	Store      TxStore
	Calculator Calculator
	Logger     *slog.Logger
	Clock      func() time.Time
}

func NewService(store TxStore, calc Calculator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Store: store, Calculator: calc, Logger: logger, Clock: time.Now}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

// =============================================================================
// INPUTS
// =============================================================================

// NewEmployee is the profile of an employee to create.
type NewEmployee struct {
	ID       string
	Name     string
	LastName string
	HireDate string
	Type     EmploymentType
}

// NewRequest is an employee's leave ask. Dates are YYYY-MM-DD.
type NewRequest struct {
	StartDate string
	EndDate   string
	Type      RecordKind
	Reason    string
}

// ManualRecord is leave loaded directly by HR, skipping review.
type ManualRecord struct {
	Kind      RecordKind
	StartDate string
	EndDate   string
	Notes     string
}

// Adjustment is a manual +/- correction to a year's generated days.
type Adjustment struct {
	Year  int
	Days  decimal.Decimal
	Notes string
	Date  string // optional, defaults to Jan 1 of Year
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Service) CreateEmployee(ctx context.Context, in NewEmployee) (Employee, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" || strings.TrimSpace(in.Name) == "" {
		return Employee{}, fmt.Errorf("%w: id and name are required", ErrInvalidEmployee)
	}
	hire, err := generic.ParseDate(in.HireDate)
	if err != nil {
		return Employee{}, fmt.Errorf("hire date: %w", err)
	}
	empType := in.Type
	if empType == "" {
		empType = EmploymentMonthly
	}
	if !empType.Valid() {
		return Employee{}, fmt.Errorf("%w: unknown employment type %q", ErrInvalidEmployee, in.Type)
	}

	emp := Employee{
		ID:       generic.EntityID(id),
		Name:     strings.TrimSpace(in.Name),
		LastName: strings.TrimSpace(in.LastName),
		HireDate: hire,
		Type:     empType,
		Active:   true,
	}

	err = s.Store.WithTx(ctx, func(st Store) error {
		if _, err := st.GetEmployee(ctx, emp.ID); err == nil {
			return ErrDuplicateEmployee
		} else if !generic.IsNotFound(err) {
			return err
		}
		return st.SaveEmployee(ctx, emp)
	})
	if err != nil {
		return Employee{}, err
	}
	s.Logger.Info("employee created", "employee_id", emp.ID, "hire_date", emp.HireDate.String())
	return emp, nil
}

func (s *Service) GetEmployee(ctx context.Context, id generic.EntityID) (Employee, error) {
	return s.Store.GetEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context, includeArchived bool) ([]Employee, error) {
	return s.Store.ListEmployees(ctx, includeArchived)
}

// SetEmployeeActive archives (false) or reactivates (true) an employee.
func (s *Service) SetEmployeeActive(ctx context.Context, id generic.EntityID, active bool) error {
	action := AuditEmployeeArchived
	if active {
		action = AuditEmployeeRestored
	}
	err := s.Store.WithTx(ctx, func(st Store) error {
		if err := st.SetEmployeeActive(ctx, id, active); err != nil {
			return err
		}
		return s.audit(ctx, st, action, id, string(id), "")
	})
	if err != nil {
		return err
	}
	s.Logger.Info("employee status changed", "employee_id", id, "active", active)
	return nil
}

// =============================================================================
// BALANCE AND HISTORY
// =============================================================================

// Balance returns the derived summary for year.
func (s *Service) Balance(ctx context.Context, id generic.EntityID, year int) (Summary, error) {
	emp, agreed, err := s.snapshot(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	return s.Calculator.Summarize(emp, year, agreed), nil
}

// History returns the unified history, most recent first.
func (s *Service) History(ctx context.Context, id generic.EntityID) ([]HistoryEntry, error) {
	emp, agreed, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Calculator.History(emp, agreed), nil
}

// EmployeeBalance pairs an employee with their summary.
type EmployeeBalance struct {
	Employee Employee
	Summary  Summary
}

// Balances summarizes every active employee for year, ordered by last name.
func (s *Service) Balances(ctx context.Context, year int) ([]EmployeeBalance, error) {
	emps, err := s.Store.ListEmployees(ctx, false)
	if err != nil {
		return nil, err
	}
	agreed, err := s.Store.ListAgreedDays(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]EmployeeBalance, 0, len(emps))
	for _, e := range emps {
		out = append(out, EmployeeBalance{Employee: e, Summary: s.Calculator.Summarize(e, year, agreed)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Employee.LastName) < strings.ToLower(out[j].Employee.LastName)
	})
	return out, nil
}

func (s *Service) snapshot(ctx context.Context, id generic.EntityID) (Employee, []AgreedDay, error) {
	emp, err := s.Store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, nil, err
	}
	agreed, err := s.Store.ListAgreedDays(ctx)
	if err != nil {
		return Employee{}, nil, err
	}
	return emp, agreed, nil
}

func (s *Service) Audit(ctx context.Context, id generic.EntityID) ([]AuditEntry, error) {
	if _, err := s.Store.GetEmployee(ctx, id); err != nil {
		return nil, err
	}
	return s.Store.ListAudit(ctx, id)
}

// =============================================================================
// REQUESTS
// =============================================================================

// SubmitRequest validates and stores a Pendiente request. Days is the
// number of Monday-Friday dates in the range.
func (s *Service) SubmitRequest(ctx context.Context, empID generic.EntityID, in NewRequest) (LeaveRequest, error) {
	period, err := generic.ParsePeriod(in.StartDate, in.EndDate)
	if err != nil {
		return LeaveRequest{}, err
	}
	if !in.Type.Requestable() {
		return LeaveRequest{}, fmt.Errorf("%w: %q cannot be requested", ErrInvalidKind, in.Type)
	}
	days := period.WorkingDays(nil)
	if days == 0 {
		return LeaveRequest{}, ErrNoWorkingDays
	}

	req := LeaveRequest{
		ID:        uuid.NewString(),
		StartDate: period.Start,
		EndDate:   period.End,
		Days:      days,
		Reason:    strings.TrimSpace(in.Reason),
		Type:      in.Type,
		Status:    StatusPending,
		CreatedAt: s.now().UTC(),
	}

	err = s.Store.WithTx(ctx, func(st Store) error {
		emp, err := st.GetEmployee(ctx, empID)
		if err != nil {
			return err
		}
		for _, existing := range emp.Requests {
			if existing.Status == StatusRejected {
				continue
			}
			if existing.Period().Overlaps(period) {
				return &OverlapError{ExistingID: existing.ID, Period: existing.Period()}
			}
		}
		if err := st.SaveRequest(ctx, empID, req); err != nil {
			return err
		}
		return s.audit(ctx, st, AuditRequestSubmitted, empID, req.ID, period.String())
	})
	if err != nil {
		return LeaveRequest{}, err
	}

	s.Logger.Info("leave request submitted",
		"employee_id", empID, "request_id", req.ID, "type", req.Type, "days", req.Days)
	return req, nil
}

// ApproveRequest resolves a pending request and appends its leave record.
// Special leave starts with JustificationPending.
func (s *Service) ApproveRequest(ctx context.Context, empID generic.EntityID, reqID, comment string) (LeaveRecord, error) {
	var rec LeaveRecord
	err := s.Store.WithTx(ctx, func(st Store) error {
		req, err := s.pendingRequest(ctx, st, empID, reqID)
		if err != nil {
			return err
		}
		processed := s.now().UTC()
		req.Status = StatusApproved
		req.AdminComment = strings.TrimSpace(comment)
		req.ProcessedAt = &processed
		if err := st.SaveRequest(ctx, empID, req); err != nil {
			return err
		}

		rec = LeaveRecord{
			ID:        "app-" + req.ID,
			Kind:      req.Type,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Days:      decimal.NewFromInt(int64(req.Days)),
			Notes:     req.Reason,
			Year:      req.StartDate.Year(),
		}
		if rec.Kind == KindSpecial {
			rec.Justification = JustificationPending
		}
		if err := st.AppendRecord(ctx, empID, rec); err != nil {
			return err
		}
		return s.audit(ctx, st, AuditRequestApproved, empID, req.ID, req.AdminComment)
	})
	if err != nil {
		return LeaveRecord{}, err
	}

	s.Logger.Info("leave request approved", "employee_id", empID, "request_id", reqID, "record_id", rec.ID)
	return rec, nil
}

// RejectRequest resolves a pending request as Rechazado. A comment is required.
func (s *Service) RejectRequest(ctx context.Context, empID generic.EntityID, reqID, comment string) (LeaveRequest, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return LeaveRequest{}, ErrCommentRequired
	}

	var req LeaveRequest
	err := s.Store.WithTx(ctx, func(st Store) error {
		var err error
		req, err = s.pendingRequest(ctx, st, empID, reqID)
		if err != nil {
			return err
		}
		processed := s.now().UTC()
		req.Status = StatusRejected
		req.AdminComment = comment
		req.ProcessedAt = &processed
		if err := st.SaveRequest(ctx, empID, req); err != nil {
			return err
		}
		return s.audit(ctx, st, AuditRequestRejected, empID, req.ID, comment)
	})
	if err != nil {
		return LeaveRequest{}, err
	}

	s.Logger.Info("leave request rejected", "employee_id", empID, "request_id", reqID)
	return req, nil
}

func (s *Service) pendingRequest(ctx context.Context, st Store, empID generic.EntityID, reqID string) (LeaveRequest, error) {
	emp, err := st.GetEmployee(ctx, empID)
	if err != nil {
		return LeaveRequest{}, err
	}
	req, ok := emp.Request(reqID)
	if !ok {
		return LeaveRequest{}, RequestNotFound(reqID)
	}
	if req.Status != StatusPending {
		return LeaveRequest{}, fmt.Errorf("%w: %s is %s", ErrRequestNotPending, reqID, req.Status)
	}
	return req, nil
}

func (s *Service) PendingRequests(ctx context.Context) ([]PendingRequest, error) {
	return s.Store.ListPendingRequests(ctx)
}

// =============================================================================
// DIRECT RECORDS
// =============================================================================

// AddManualRecord appends leave loaded by HR. Exceptions and adjustments
// have their own operations.
func (s *Service) AddManualRecord(ctx context.Context, empID generic.EntityID, in ManualRecord) (LeaveRecord, error) {
	switch in.Kind {
	case KindAnnual, KindSpecial, KindAdvance, KindUnpaid, KindAgreed:
	default:
		return LeaveRecord{}, fmt.Errorf("%w: %q", ErrInvalidKind, in.Kind)
	}
	period, err := generic.ParsePeriod(in.StartDate, in.EndDate)
	if err != nil {
		return LeaveRecord{}, err
	}
	days := period.WorkingDays(nil)
	if days == 0 {
		return LeaveRecord{}, ErrNoWorkingDays
	}

	rec := LeaveRecord{
		ID:        "man-" + uuid.NewString(),
		Kind:      in.Kind,
		StartDate: period.Start,
		EndDate:   period.End,
		Days:      decimal.NewFromInt(int64(days)),
		Notes:     strings.TrimSpace(in.Notes),
		Year:      period.Start.Year(),
	}
	if rec.Kind == KindSpecial {
		rec.Justification = JustificationPending
	}
	if err := s.appendRecord(ctx, empID, rec, AuditRecordAdded); err != nil {
		return LeaveRecord{}, err
	}
	return rec, nil
}

// CertifyRecord accepts the proof for a special leave record. Certifying
// twice is a no-op.
func (s *Service) CertifyRecord(ctx context.Context, empID generic.EntityID, recordID string) error {
	return s.Store.WithTx(ctx, func(st Store) error {
		emp, err := st.GetEmployee(ctx, empID)
		if err != nil {
			return err
		}
		rec, ok := emp.Record(recordID)
		if !ok {
			return RecordNotFound(recordID)
		}
		if rec.Kind != KindSpecial {
			return fmt.Errorf("%w: %s is %s", ErrNotCertifiable, recordID, rec.Kind)
		}
		if rec.Justification == JustificationAccepted {
			return nil
		}
		if err := st.SetRecordJustification(ctx, empID, recordID, JustificationAccepted); err != nil {
			return err
		}
		s.Logger.Info("special leave certified", "employee_id", empID, "record_id", recordID)
		return s.audit(ctx, st, AuditRecordCertified, empID, recordID, "")
	})
}

// AddAdjustment appends a BalanceAdjustment record for in.Year.
func (s *Service) AddAdjustment(ctx context.Context, empID generic.EntityID, in Adjustment) (LeaveRecord, error) {
	if in.Days.IsZero() {
		return LeaveRecord{}, ErrZeroAdjustment
	}
	if in.Year <= 0 {
		return LeaveRecord{}, fmt.Errorf("%w: year %d", generic.ErrInvalidDate, in.Year)
	}
	at := generic.StartOfYear(in.Year)
	if strings.TrimSpace(in.Date) != "" {
		parsed, err := generic.ParseDate(in.Date)
		if err != nil {
			return LeaveRecord{}, err
		}
		at = parsed
	}

	rec := LeaveRecord{
		ID:        "adj-" + uuid.NewString(),
		Kind:      KindAdjustment,
		StartDate: at,
		EndDate:   at,
		Days:      in.Days,
		Notes:     strings.TrimSpace(in.Notes),
		Year:      in.Year,
	}
	if err := s.appendRecord(ctx, empID, rec, AuditAdjustment); err != nil {
		return LeaveRecord{}, err
	}
	return rec, nil
}

// AddException cancels one agreed day for one employee.
func (s *Service) AddException(ctx context.Context, empID generic.EntityID, agreedDayID, notes string) (LeaveRecord, error) {
	var rec LeaveRecord
	err := s.Store.WithTx(ctx, func(st Store) error {
		day, err := st.GetAgreedDay(ctx, agreedDayID)
		if err != nil {
			return err
		}
		emp, err := st.GetEmployee(ctx, empID)
		if err != nil {
			return err
		}
		for _, r := range emp.Records {
			if r.Kind == KindException && (r.AgreedDayID == day.ID || (r.AgreedDayID == "" && r.StartDate.Equal(day.Date))) {
				return ErrDuplicateException
			}
		}
		rec = LeaveRecord{
			ID:          "exc-" + uuid.NewString(),
			Kind:        KindException,
			StartDate:   day.Date,
			EndDate:     day.Date,
			Days:        decimal.NewFromInt(1),
			Notes:       strings.TrimSpace(notes),
			Year:        day.Date.Year(),
			AgreedDayID: day.ID,
		}
		if err := st.AppendRecord(ctx, empID, rec); err != nil {
			return err
		}
		return s.audit(ctx, st, AuditException, empID, rec.ID, day.Date.String())
	})
	if err != nil {
		return LeaveRecord{}, err
	}
	s.Logger.Info("agreed day excepted", "employee_id", empID, "agreed_day_id", agreedDayID)
	return rec, nil
}

func (s *Service) appendRecord(ctx context.Context, empID generic.EntityID, rec LeaveRecord, action AuditAction) error {
	err := s.Store.WithTx(ctx, func(st Store) error {
		if _, err := st.GetEmployee(ctx, empID); err != nil {
			return err
		}
		if err := st.AppendRecord(ctx, empID, rec); err != nil {
			return err
		}
		return s.audit(ctx, st, action, empID, rec.ID, rec.Days.String())
	})
	if err != nil {
		return err
	}
	s.Logger.Info("leave record added",
		"employee_id", empID, "record_id", rec.ID, "kind", rec.Kind, "days", rec.Days.String())
	return nil
}

func (s *Service) audit(ctx context.Context, st Store, action AuditAction, empID generic.EntityID, subject, detail string) error {
	return st.AppendAudit(ctx, AuditEntry{
		ID:         uuid.NewString(),
		At:         s.now().UTC(),
		Action:     action,
		EmployeeID: empID,
		SubjectID:  subject,
		Detail:     detail,
	})
}

// =============================================================================
// AGREED DAYS
// =============================================================================

func (s *Service) ListAgreedDays(ctx context.Context) ([]AgreedDay, error) {
	return s.Store.ListAgreedDays(ctx)
}

// AddAgreedDay creates an inactive agreed day. Dates are unique.
func (s *Service) AddAgreedDay(ctx context.Context, date, description string) (AgreedDay, error) {
	d, err := generic.ParseDate(date)
	if err != nil {
		return AgreedDay{}, err
	}
	day := AgreedDay{ID: uuid.NewString(), Date: d, Description: strings.TrimSpace(description)}
	if err := s.Store.SaveAgreedDay(ctx, day); err != nil {
		return AgreedDay{}, err
	}
	s.Logger.Info("agreed day added", "agreed_day_id", day.ID, "date", day.Date.String())
	return day, nil
}

// UpdateAgreedDay changes date and description, keeping the active flag.
func (s *Service) UpdateAgreedDay(ctx context.Context, id, date, description string) (AgreedDay, error) {
	d, err := generic.ParseDate(date)
	if err != nil {
		return AgreedDay{}, err
	}
	var day AgreedDay
	err = s.Store.WithTx(ctx, func(st Store) error {
		var err error
		day, err = st.GetAgreedDay(ctx, id)
		if err != nil {
			return err
		}
		day.Date = d
		day.Description = strings.TrimSpace(description)
		return st.SaveAgreedDay(ctx, day)
	})
	if err != nil {
		return AgreedDay{}, err
	}
	return day, nil
}

func (s *Service) DeleteAgreedDay(ctx context.Context, id string) error {
	if err := s.Store.DeleteAgreedDay(ctx, id); err != nil {
		return err
	}
	s.Logger.Info("agreed day deleted", "agreed_day_id", id)
	return nil
}

// ActivateAgreedDays confirms every pending agreed day.
func (s *Service) ActivateAgreedDays(ctx context.Context) (int, error) {
	n, err := s.Store.ActivateAgreedDays(ctx)
	if err != nil {
		return 0, err
	}
	s.Logger.Info("agreed days activated", "count", n)
	return n, nil
}

// SeedAgreedDays adds the yearly template for year, skipping dates that
// already have an agreed day. Returns the days added.
func (s *Service) SeedAgreedDays(ctx context.Context, year int) ([]AgreedDay, error) {
	var added []AgreedDay
	err := s.Store.WithTx(ctx, func(st Store) error {
		existing, err := st.ListAgreedDays(ctx)
		if err != nil {
			return err
		}
		taken := make(map[string]struct{}, len(existing))
		for _, d := range existing {
			taken[d.Date.String()] = struct{}{}
		}
		for _, d := range DefaultAgreedDays(year) {
			if _, ok := taken[d.Date.String()]; ok {
				continue
			}
			d.ID = uuid.NewString()
			if err := st.SaveAgreedDay(ctx, d); err != nil {
				return err
			}
			added = append(added, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("agreed days seeded", "year", year, "added", len(added))
	return added, nil
}
